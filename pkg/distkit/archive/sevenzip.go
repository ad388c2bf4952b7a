package archive

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// SevenZip drives the 7-Zip command line tool (7za).
type SevenZip struct {
	path    string        // path to 7za
	timeout time.Duration // per invocation, 0 means none

	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

type SevenZipOpt func(*SevenZip)

func WithSevenZipPath(path string) SevenZipOpt {
	return func(s *SevenZip) {
		s.path = path
	}
}

// WithTimeout bounds each 7za invocation. A hung tool is killed when
// the timeout expires.
func WithTimeout(d time.Duration) SevenZipOpt {
	return func(s *SevenZip) {
		s.timeout = d
	}
}

func NewSevenZip(opts ...SevenZipOpt) *SevenZip {
	s := &SevenZip{
		path:   "7za",
		execCC: exec.CommandContext,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *SevenZip) Extract(ctx context.Context, src, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.SevenZip.Extract")
	defer span.End()

	if err := os.MkdirAll(dst, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	_, err := s.execOut(ctx, "x", src, "-o"+dst, "-y")
	return err
}

func (s *SevenZip) Tar(ctx context.Context, srcDir, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.SevenZip.Tar")
	defer span.End()

	// 7za expands the wildcard itself, which puts the directory's
	// children at the top of the archive.
	_, err := s.execOut(ctx, "a", "-ttar", dst, filepath.Join(srcDir, "*"))
	return err
}

func (s *SevenZip) Gzip(ctx context.Context, src, dst string) error {
	ctx, span := trace.StartSpan(ctx, "archive.SevenZip.Gzip")
	defer span.End()

	_, err := s.execOut(ctx, "a", "-tgzip", dst, src)
	return err
}

func (s *SevenZip) execOut(ctx context.Context, args ...string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := s.execCC(ctx, s.path, args...)

	level.Debug(logger).Log(
		"msg", "execing",
		"cmd", strings.Join(cmd.Args, " "),
	)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(ctx.Err(), err.Error())
		}
		return "", errors.Wrapf(err, "run command %s %v\nstdout=%s\nstderr=%s", s.path, args, stdout, stderr)
	}
	return strings.TrimSpace(stdout.String()), nil
}
