package distkit

import (
	"context"
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/fsutil"
	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// CopyFile copies a single file, keeping its mode.
func CopyFile(src, dst string) error {
	if err := fsutil.CopyFile(src, dst); err != nil {
		return errors.Wrapf(err, "copying %s to %s", src, dst)
	}
	return nil
}

// CopyTree copies the directory src to dst. Symlinks are copied as
// links, which JRE trees depend on.
func CopyTree(src, dst string) error {
	if err := IsDirectory(src); err != nil {
		return err
	}

	opts := cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
		PreserveTimes: true,
	}
	if err := cp.Copy(src, dst, opts); err != nil {
		return errors.Wrapf(err, "copying tree %s to %s", src, dst)
	}
	return nil
}

// CopyMatching copies the regular files in srcDir whose names match
// pattern into dstDir. It returns the copied destination paths. A
// missing srcDir is a *MissingInputError.
func CopyMatching(ctx context.Context, srcDir, pattern, dstDir string) ([]string, error) {
	if !Exists(srcDir) {
		return nil, missingInput("directory", srcDir)
	}

	matches, err := FindAll(srcDir, pattern)
	if err != nil {
		return nil, err
	}

	var copied []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return copied, errors.Wrapf(err, "stat %s", m)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		dst := filepath.Join(dstDir, filepath.Base(m))
		if err := CopyFile(m, dst); err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}

	level.Debug(ctxlog.FromContext(ctx)).Log(
		"msg", "copied files",
		"src", srcDir,
		"pattern", pattern,
		"dst", dstDir,
		"count", len(copied),
	)
	return copied, nil
}

// Move moves src into the directory dstDir, keeping its base name.
func Move(src, dstDir string) error {
	return Rename(src, filepath.Join(dstDir, filepath.Base(src)))
}

// Rename moves src to dst. Across devices it falls back to copy and
// delete. Any other rename failure, such as a non-empty dst left by an
// earlier run, is returned as is.
func Rename(src, dst string) error {
	if !Exists(src) {
		return missingInput("source", src)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return errors.Wrapf(err, "moving %s to %s", src, dst)
	}

	if err := cp.Copy(src, dst, cp.Options{OnSymlink: func(string) cp.SymlinkAction { return cp.Shallow }}); err != nil {
		return errors.Wrapf(err, "moving %s to %s", src, dst)
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.Wrapf(err, "removing %s after copy", src)
	}
	return nil
}

// CopyLicenses puts the readme and the licenses tree from resourceDir
// into productDir. An existing licenses directory is left alone. Both
// parts are attempted; a missing source is reported as a
// *MissingInputError after the other part has been copied.
func CopyLicenses(ctx context.Context, resourceDir, productDir string) error {
	ctx, span := trace.StartSpan(ctx, "distkit.CopyLicenses")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	var missing error

	readme := filepath.Join(resourceDir, "OPENLCA_README.txt")
	if Exists(readme) {
		if err := CopyFile(readme, filepath.Join(productDir, filepath.Base(readme))); err != nil {
			return err
		}
	} else {
		missing = missingInput("license readme", readme)
	}

	target := filepath.Join(productDir, "licenses")
	licenses := filepath.Join(resourceDir, "licenses")
	switch {
	case Exists(target):
		level.Debug(logger).Log("msg", "licenses already present", "dir", target)
	case Exists(licenses):
		if err := CopyTree(licenses, target); err != nil {
			return err
		}
	case missing == nil:
		missing = missingInput("licenses directory", licenses)
	}

	return missing
}
