package nsis

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

type nsisOptions struct {
	makensisPath string        // Where is makensis
	wine         bool          // Run makensis through wine
	dockerImage  string        // If in docker, what image?
	timeout      time.Duration // per invocation, 0 means none

	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

type NsisOpt func(*nsisOptions)

func WithMakensis(path string) NsisOpt {
	return func(no *nsisOptions) {
		no.makensisPath = path
	}
}

// WithWine runs makensis.exe under wine on the local host.
func WithWine() NsisOpt {
	return func(no *nsisOptions) {
		no.wine = true
	}
}

// WithDocker runs makensis under wine inside image. The image is
// expected to have wine on its path. Only the script directory is
// mounted, so the makensis path is taken as a path inside the image.
func WithDocker(image string) NsisOpt {
	return func(no *nsisOptions) {
		no.dockerImage = image
	}
}

func WithTimeout(d time.Duration) NsisOpt {
	return func(no *nsisOptions) {
		no.timeout = d
	}
}

// New returns something that can compile installer scripts.
func New(opts ...NsisOpt) *nsisOptions {
	no := &nsisOptions{
		makensisPath: "makensis",
		execCC:       exec.CommandContext,
	}

	for _, opt := range opts {
		opt(no)
	}

	return no
}

// Build compiles the script at scriptPath. Where the installer ends up
// is decided by the script's OutFile.
func (no *nsisOptions) Build(ctx context.Context, scriptPath string) error {
	ctx, span := trace.StartSpan(ctx, "nsis.Build")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	scriptPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", scriptPath)
	}

	makensis, err := no.makensis()
	if err != nil {
		return err
	}

	out, err := no.execOut(ctx, makensis, filepath.Dir(scriptPath), scriptPath)
	if err != nil {
		return errors.Wrap(err, "running makensis")
	}

	level.Debug(logger).Log("msg", "makensis finished", "script", scriptPath, "output", out)
	return nil
}

// makensis returns the makensis path to exec. makensis runs in the
// script's directory, so a relative path to it is made absolute
// first. Bare names are left for $PATH, and docker paths belong to
// the image.
func (no *nsisOptions) makensis() (string, error) {
	p := no.makensisPath
	if no.dockerImage != "" || filepath.IsAbs(p) || !strings.ContainsAny(p, `/\`) {
		return p, nil
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", p)
	}
	return abs, nil
}

// commandLine returns how makensis is invoked for the script in workDir.
func (no *nsisOptions) commandLine(argv0, workDir string, args ...string) (string, []string) {

	if no.dockerImage != "" {
		dockerArgs := []string{
			"run",
			"--rm",
			"--entrypoint", "",
			"-v", fmt.Sprintf("%s:%s", workDir, workDir),
			"-w", workDir,
			no.dockerImage,
			"wine",
			argv0,
		}
		return "docker", append(dockerArgs, args...)
	}

	if no.wine {
		return "wine", append([]string{argv0}, args...)
	}

	return argv0, args
}

func (no *nsisOptions) execOut(ctx context.Context, makensis, workDir string, args ...string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if no.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, no.timeout)
		defer cancel()
	}

	argv0, args := no.commandLine(makensis, workDir, args...)
	cmd := no.execCC(ctx, argv0, args...)

	level.Debug(logger).Log(
		"msg", "execing",
		"cmd", strings.Join(cmd.Args, " "),
	)

	cmd.Dir = workDir
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(ctx.Err(), err.Error())
		}
		return "", errors.Wrapf(err, "run command %s %v\nstdout=%s\nstderr=%s", argv0, args, stdout, stderr)
	}
	return strings.TrimSpace(stdout.String()), nil
}
