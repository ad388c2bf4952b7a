// Package dist builds the openLCA distribution packages from the
// product trees of a finished Eclipse product build.
//
// A run resolves the version, clears the output directory, and then
// packs each platform whose product tree exists, always in the order
// Windows, Linux, macOS. Stages do not depend on each other. One stage
// failing does not stop the others, and the outcome of each is
// collected in a Report.
package dist

import (
	"context"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"github.com/superkruger/olca-app/pkg/distkit"
	"go.opencensus.io/trace"
)

type stage struct {
	platform Platform
	pack     func(r *runner, ctx context.Context, product string) ([]string, error)
}

var stages = []stage{
	{platform: Windows, pack: (*runner).packWindows},
	{platform: Linux, pack: (*runner).packLinux},
	{platform: MacOS, pack: (*runner).packMacOS},
}

// runner carries what the stages of one run share.
type runner struct {
	opts        Options
	version     string
	versionDate string
	outputDir   string
}

// Run builds the distribution packages. It returns an error only when
// the run can't start at all. Stage failures are in the Report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	ctx, span := trace.StartSpan(ctx, "dist.Run")
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	version, err := distkit.ReadManifestVersion(ctx, opts.Path(opts.Manifest))
	if err != nil {
		return nil, errors.Wrap(err, "resolving version")
	}

	now := opts.Clock.Now()
	r := &runner{
		opts:        opts,
		version:     version,
		versionDate: distkit.VersionDate(version, now),
		outputDir:   opts.Path(opts.OutputDir),
	}

	level.Info(logger).Log(
		"msg", "creating the openLCA distribution packages",
		"version", r.version,
		"version_date", r.versionDate,
		"output", r.outputDir,
	)

	if err := distkit.ResetOutputDir(ctx, r.outputDir); err != nil {
		return nil, errors.Wrap(err, "preparing output directory")
	}

	report := &Report{
		Version:     r.version,
		VersionDate: r.versionDate,
		Started:     now,
	}

	for _, st := range stages {
		report.Results = append(report.Results, r.runStage(ctx, st))
	}

	level.Info(logger).Log(
		"msg", "all done",
		"artifacts", len(report.Artifacts()),
		"failed", report.Failed(),
	)
	return report, nil
}

func (r *runner) runStage(ctx context.Context, st stage) Result {
	ctx, span := trace.StartSpan(ctx, "dist.stage."+st.platform.String())
	defer span.End()

	ctx = ctxlog.With(ctx, "stage", st.platform.String())
	logger := ctxlog.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return Result{Platform: st.platform, Status: Failed, Err: errors.Wrap(err, "not started")}
	}

	product := r.productDir(st.platform)
	if !distkit.Exists(product) {
		level.Info(logger).Log("msg", "product directory does not exist, skipping", "dir", product)
		return Result{
			Platform: st.platform,
			Status:   Skipped,
			Reason:   "no product directory " + product,
		}
	}

	level.Info(logger).Log("msg", "creating package", "product", product)

	artifacts, err := st.pack(r, ctx, product)
	if err != nil {
		level.Error(logger).Log("msg", "package failed", "err", err)
		return Result{Platform: st.platform, Status: Failed, Artifacts: artifacts, Err: err}
	}

	level.Info(logger).Log("msg", "package done", "artifacts", len(artifacts))
	return Result{Platform: st.platform, Status: Succeeded, Artifacts: artifacts}
}

func (r *runner) productDir(p Platform) string {
	return p.ProductDir(r.opts.Path(r.opts.BuildDir))
}

func (r *runner) artifactPath(p Platform, ext string) string {
	return filepath.Join(r.outputDir, p.ArtifactName(r.versionDate, ext))
}

func (r *runner) runtimePath(elem ...string) string {
	return filepath.Join(append([]string{r.opts.Path(r.opts.RuntimeDir)}, elem...)...)
}

func (r *runner) templatePath(name string) string {
	return filepath.Join(r.opts.Path(r.opts.TemplatesDir), name)
}

// optional decides what happens when a step's input is missing. Unless
// inputs are strict, the step is dropped with a warning. Other errors
// always fail the stage.
func (r *runner) optional(ctx context.Context, step string, err error) error {
	if err == nil {
		return nil
	}

	if !distkit.IsMissingInput(err) && !distkit.IsNotFound(err) {
		return errors.Wrap(err, step)
	}

	if r.opts.StrictInputs {
		return errors.Wrap(err, step)
	}

	level.Warn(ctxlog.FromContext(ctx)).Log(
		"msg", "input missing, skipping step",
		"step", step,
		"err", err,
	)
	return nil
}

// tool decides what happens when an external tool fails. A nil return
// means the caller should carry on without the tool's output.
func (r *runner) tool(ctx context.Context, step string, err error) error {
	if err == nil {
		return nil
	}

	if r.opts.StrictTools {
		return errors.Wrap(err, step)
	}

	level.Error(ctxlog.FromContext(ctx)).Log(
		"msg", "tool failed, continuing",
		"step", step,
		"err", err,
	)
	return nil
}

// bundleJRE extracts the single JRE archive in the runtime directory
// matching pattern into dir, and names the result jre.
func (r *runner) bundleJRE(ctx context.Context, pattern, dir string) error {
	ctx, span := trace.StartSpan(ctx, "dist.bundleJRE")
	defer span.End()

	tarball, err := distkit.FindOne(r.runtimePath("jre"), pattern)
	if err != nil {
		return err
	}

	level.Debug(ctxlog.FromContext(ctx)).Log("msg", "copy JRE", "archive", tarball, "dir", dir)

	if err := r.opts.Archiver.Extract(ctx, tarball, dir); err != nil {
		return r.tool(ctx, "extracting jre", err)
	}

	extracted, err := distkit.FindOne(dir, "*jre*")
	if err != nil {
		// not a missing input, the archive has the wrong shape
		return errors.Errorf("finding jre unpacked from %s: %v", tarball, err)
	}

	return distkit.Rename(extracted, filepath.Join(dir, "jre"))
}
