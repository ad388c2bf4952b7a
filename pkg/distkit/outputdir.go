package distkit

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// ResetOutputDir removes dir and everything below it, then creates it
// again. Removal is best effort: a locked file is logged and left
// behind rather than aborting the run. Only the final create can fail.
func ResetOutputDir(ctx context.Context, dir string) error {
	ctx, span := trace.StartSpan(ctx, "distkit.ResetOutputDir")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	if Exists(dir) {
		level.Info(logger).Log("msg", "deleting old packages", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			level.Warn(logger).Log(
				"msg", "could not delete output directory",
				"dir", dir,
				"err", err,
			)
			removeChildren(ctx, dir)
		}
	}

	if err := os.MkdirAll(dir, DirMode); err != nil {
		return errors.Wrapf(err, "creating output directory %s", dir)
	}
	return nil
}

// removeChildren is the fallback when RemoveAll gave up part way. It
// tries every remaining entry on its own, so one stuck file doesn't
// keep its siblings around.
func removeChildren(ctx context.Context, dir string) {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			level.Warn(logger).Log("msg", "leaving stale entry", "path", p, "err", err)
		}
	}
}
