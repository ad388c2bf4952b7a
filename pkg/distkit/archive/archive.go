// Package archive creates and unpacks the tar, tar.gz and zip files
// that make up a distribution. Archivers come in two flavors: one that
// drives an external 7-Zip binary, and one that does the work in
// process.
package archive

import (
	"context"
	"os"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// Archiver is the set of operations the packaging stages need.
type Archiver interface {
	// Extract unpacks the archive src into the directory dst,
	// creating dst if needed.
	Extract(ctx context.Context, src, dst string) error

	// Tar writes the contents of srcDir into the tar file dst. Entry
	// names are relative to srcDir.
	Tar(ctx context.Context, srcDir, dst string) error

	// Gzip compresses the file src into dst.
	Gzip(ctx context.Context, src, dst string) error
}

// TarGz packs the contents of srcDir into base.tar.gz. It goes through
// an intermediate base.tar, which is removed afterwards.
func TarGz(ctx context.Context, a Archiver, srcDir, base string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "archive.TarGz")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	tarFile := base + ".tar"
	gzFile := base + ".tar.gz"

	level.Debug(logger).Log("msg", "targz", "src", srcDir, "dst", gzFile)

	// Tidy the intermediate tar up no matter how we leave
	defer func() {
		if err := os.Remove(tarFile); err != nil && !os.IsNotExist(err) {
			level.Warn(logger).Log("msg", "could not remove intermediate tar", "path", tarFile, "err", err)
		}
	}()

	if err := a.Tar(ctx, srcDir, tarFile); err != nil {
		return "", errors.Wrap(err, "creating tar")
	}

	if err := a.Gzip(ctx, tarFile, gzFile); err != nil {
		return "", errors.Wrap(err, "compressing tar")
	}

	return gzFile, nil
}
