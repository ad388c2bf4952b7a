package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// Zip writes the contents of srcDir into the zip file dst. Entry names
// are relative to srcDir and directories get their own entries. A
// symlinked file is stored as a copy of its target.
func Zip(ctx context.Context, srcDir, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.Zip")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	count := 0
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
		if rel == "." || path == dst {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if info.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}

		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "writing zip %s", dst)
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "closing zip writer")
	}

	level.Debug(logger).Log("msg", "wrote zip", "src", srcDir, "dst", dst, "files", count)
	return out.Close()
}
