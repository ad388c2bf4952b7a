package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// Native is an Archiver that needs no external tools.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

// Extract unpacks a tar file, gzipped or not, into dst. Entries that
// would land outside dst are rejected, as are symlinks pointing outside
// dst and entries written through a symlink.
func (n *Native) Extract(ctx context.Context, src, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.Native.Extract")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	fh, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer fh.Close()

	var r io.Reader = bufio.NewReader(fh)
	if gzipped, err := isGzip(r.(*bufio.Reader)); err != nil {
		return errors.Wrapf(err, "sniffing %s", src)
	} else if gzipped {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "decompressing %s", src)
		}
		defer gzr.Close()
		r = gzr
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	count := 0
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", src)
		}

		target, err := sanitizeExtractPath(dst, header.Name)
		if err != nil {
			return err
		}
		if err := checkNoSymlinkParents(dst, target); err != nil {
			return errors.Wrapf(err, "illegal path in archive: %s", header.Name)
		}

		if err := extractEntry(tr, header, dst, target); err != nil {
			return errors.Wrapf(err, "extracting %s", header.Name)
		}
		count++
	}

	level.Debug(logger).Log("msg", "extracted archive", "src", src, "dst", dst, "entries", count)
	return nil
}

func extractEntry(tr *tar.Reader, header *tar.Header, dst, target string) error {
	mode := header.FileInfo().Mode()

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode.Perm()|0700)
	case tar.TypeReg, tar.TypeRegA:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		// replace a link of the same name instead of writing through it
		if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(target); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := checkSymlinkTarget(dst, target, header.Linkname); err != nil {
			return err
		}
		return os.Symlink(header.Linkname, target)
	case tar.TypeLink:
		linkTarget, err := sanitizeExtractPath(dst, header.Linkname)
		if err != nil {
			return err
		}
		if err := checkNoSymlinkParents(dst, linkTarget); err != nil {
			return errors.Wrapf(err, "illegal link in archive: %s", header.Linkname)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		return os.Link(linkTarget, target)
	default:
		// pax headers and the like carry nothing we need on disk
		return nil
	}
}

func sanitizeExtractPath(dst, name string) (string, error) {
	target := filepath.Join(dst, filepath.FromSlash(name))
	if target != filepath.Clean(dst) && !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", errors.Errorf("illegal path in archive: %s", name)
	}
	return target, nil
}

// checkSymlinkTarget rejects a link at target whose destination,
// resolved lexically, is outside dst.
func checkSymlinkTarget(dst, target, linkname string) error {
	resolved := filepath.FromSlash(linkname)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), resolved)
	}

	root := filepath.Clean(dst)
	resolved = filepath.Clean(resolved)
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return errors.Errorf("illegal link in archive: %s -> %s", target, linkname)
	}
	return nil
}

// checkNoSymlinkParents fails when a directory between dst and target
// is a symlink.
func checkNoSymlinkParents(dst, target string) error {
	root := filepath.Clean(dst)
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	current := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			// nothing further down exists yet either
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.Errorf("%s is a symlink", current)
		}
	}
	return nil
}

func isGzip(r *bufio.Reader) (bool, error) {
	magic, err := r.Peek(2)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// Tar writes the children of srcDir into dst in lexical order.
func (n *Native) Tar(ctx context.Context, srcDir, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.Native.Tar")
	defer span.End()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	tw := tar.NewWriter(bw)

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		// Don't swallow our own output when it lives under srcDir
		if path == dst {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "writing tar %s", dst)
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "closing tar writer")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing tar")
	}
	return out.Close()
}

func (n *Native) Gzip(ctx context.Context, src, dst string) error {
	_, span := trace.StartSpan(ctx, "archive.Native.Gzip")
	defer span.End()

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	gzw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		return errors.Wrap(err, "creating gzip writer")
	}
	gzw.Name = filepath.Base(src)

	if _, err := io.Copy(gzw, in); err != nil {
		return errors.Wrapf(err, "compressing %s", src)
	}
	if err := gzw.Close(); err != nil {
		return errors.Wrap(err, "closing gzip writer")
	}
	return out.Close()
}
