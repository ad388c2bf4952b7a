/*
Package nsis is a lightweight wrapper around makensis, the compiler of
the Nullsoft Scriptable Install System.

Background and Theory Of Operations

An NSIS installer is described by a single .nsi script. makensis
compiles it into a self-contained setup executable. The script decides
where the executable is written (its OutFile), and makensis changes
into the script's directory before compiling, so relative paths in the
script resolve next to it.

makensis is a Windows program in most installations. On other hosts it
can be run through wine, or inside a docker image that carries wine and
NSIS. The script directory is mounted into the container at the same
path.

This is not meant as a complete NSIS wrapper.

References

  1. https://nsis.sourceforge.io/Docs/Chapter3.html
*/
package nsis
