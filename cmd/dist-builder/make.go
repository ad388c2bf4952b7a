package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/env"
	"github.com/kolide/kit/logutil"
	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v3"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"github.com/superkruger/olca-app/pkg/dist"
	"github.com/superkruger/olca-app/pkg/distkit/archive"
	"github.com/superkruger/olca-app/pkg/distkit/nsis"
)

func runMake(args []string) error {
	def := dist.DefaultOptions()

	flagset := flag.NewFlagSet("make", flag.ExitOnError)
	var (
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
		_ = flagset.String(
			"config",
			"",
			"config file to parse options from (optional)",
		)
		flWorkDir = flagset.String(
			"work_dir",
			def.WorkDir,
			"the olca-app-build directory. Relative paths are resolved against it",
		)
		flOutputDir = flagset.String(
			"output_dir",
			def.OutputDir,
			"where the packages are written. Emptied on every run",
		)
		flManifest = flagset.String(
			"manifest",
			def.Manifest,
			"the MANIFEST.MF to read the Bundle-Version from",
		)
		flBuildDir = flagset.String(
			"build_dir",
			def.BuildDir,
			"the directory holding the exported product trees",
		)
		flRuntimeDir = flagset.String(
			"runtime_dir",
			def.RuntimeDir,
			"the directory holding the JREs and native libraries",
		)
		flResourcesDir = flagset.String(
			"resources_dir",
			def.ResourcesDir,
			"the directory holding licenses and installer resources",
		)
		flTemplatesDir = flagset.String(
			"templates_dir",
			def.TemplatesDir,
			"the directory holding the ini and installer templates",
		)
		flMacOSDir = flagset.String(
			"macos_dir",
			def.MacOSDir,
			"the directory holding the macOS Info.plist and ini template",
		)
		flHeap = flagset.String(
			"heap",
			def.HeapSize,
			"the maximum heap size written to the Windows launcher configuration",
		)
		flLocales = flagset.String(
			"locales",
			dist.DefaultLocales,
			"comma separated code:folder pairs, one Windows launcher configuration each",
		)
		flStrictInputs = flagset.Bool(
			"strict_inputs",
			def.StrictInputs,
			"fail a stage when an optional input is missing, instead of warning",
		)
		flStrictTools = flagset.Bool(
			"strict_tools",
			def.StrictTools,
			"fail a stage when an external tool fails. When false, the failure is only logged",
		)
		flToolTimeout = flagset.Duration(
			"tool_timeout",
			0,
			"timeout for each external tool invocation. 0 means none",
		)
		flArchiver = flagset.String(
			"archiver",
			"7zip",
			"how archives are made: 7zip or native",
		)
		flSevenZip = flagset.String(
			"sevenzip_path",
			env.String("SEVENZIP", filepath.Join("tools", "7zip", "7za.exe")),
			"path to 7za",
		)
		flMakensis = flagset.String(
			"makensis_path",
			env.String("MAKENSIS", filepath.Join("tools", "nsis-2.46", "makensis.exe")),
			"path to makensis",
		)
		flMakensisWine = flagset.Bool(
			"makensis_wine",
			false,
			"run makensis through wine",
		)
		flMakensisDocker = flagset.String(
			"makensis_docker",
			"",
			"docker image to run makensis in, through wine. Only the installer directory is mounted, so makensis_path must be an absolute path inside the image",
		)
		flReport = flagset.String(
			"report",
			"",
			"write a YAML report of the run to this file (optional)",
		)
	)

	flagset.Usage = usageFor(flagset, "dist-builder make [flags]")

	ffOpts := []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("DIST"),
	}

	if err := ff.Parse(flagset, args, ffOpts...); err != nil {
		logger := logutil.NewCLILogger(true)
		logutil.Fatal(logger, "msg", "Error parsing flags", "err", err)
	}

	logger := logutil.NewCLILogger(*flDebug)
	ctx := ctxlog.NewContext(context.Background(), logger)

	locales, err := dist.ParseLocales(*flLocales)
	if err != nil {
		return errors.Wrap(err, "parsing locales")
	}

	opts := dist.Options{
		WorkDir:      *flWorkDir,
		OutputDir:    *flOutputDir,
		Manifest:     *flManifest,
		BuildDir:     *flBuildDir,
		RuntimeDir:   *flRuntimeDir,
		ResourcesDir: *flResourcesDir,
		TemplatesDir: *flTemplatesDir,
		MacOSDir:     *flMacOSDir,
		HeapSize:     *flHeap,
		Locales:      locales,
		StrictInputs: *flStrictInputs,
		StrictTools:  *flStrictTools,
	}

	archiver, err := newArchiver(opts, *flArchiver, *flSevenZip, *flToolTimeout)
	if err != nil {
		return err
	}
	opts.Archiver = archiver

	makensis := *flMakensis
	if *flMakensisDocker == "" {
		if makensis, err = toolPath(opts, makensis); err != nil {
			return err
		}
	}
	nsisOpts := []nsis.NsisOpt{
		nsis.WithMakensis(makensis),
		nsis.WithTimeout(*flToolTimeout),
	}
	if *flMakensisWine {
		nsisOpts = append(nsisOpts, nsis.WithWine())
	}
	if *flMakensisDocker != "" {
		nsisOpts = append(nsisOpts, nsis.WithDocker(*flMakensisDocker))
	}
	opts.Installer = nsis.New(nsisOpts...)

	report, err := runPipeline(ctx, logger, opts)
	if err != nil {
		logutil.Fatal(logger, "msg", "could not create packages", "err", err)
	}

	return finishReport(logger, report, *flReport, os.Stdout)
}

func newArchiver(opts dist.Options, kind, sevenZipPath string, timeout time.Duration) (archive.Archiver, error) {
	switch kind {
	case "7zip":
		path, err := toolPath(opts, sevenZipPath)
		if err != nil {
			return nil, err
		}
		return archive.NewSevenZip(
			archive.WithSevenZipPath(path),
			archive.WithTimeout(timeout),
		), nil
	case "native":
		return archive.NewNative(), nil
	default:
		return nil, errors.Errorf("unknown archiver %q, expected 7zip or native", kind)
	}
}

// finishReport writes the optional YAML report and the summary, and
// turns a failed stage into an error so the process exits non-zero.
func finishReport(logger log.Logger, report *dist.Report, reportPath string, w io.Writer) error {
	if reportPath != "" {
		if err := report.WriteYAML(reportPath); err != nil {
			level.Error(logger).Log("msg", "could not write report", "err", err)
		}
	}

	report.PrintSummary(w)

	if report.Failed() {
		return errors.New("one or more packages failed")
	}
	return nil
}

// runPipeline runs the packaging next to a signal listener, so an
// interrupt cancels whatever tool is running.
func runPipeline(ctx context.Context, logger log.Logger, opts dist.Options) (*dist.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		report *dist.Report
		runErr error
	)

	var runGroup run.Group

	runGroup.Add(func() error {
		report, runErr = dist.Run(ctx, opts)
		return runErr
	}, func(error) {
		cancel()
	})

	sigListener := newSignalListener(make(chan os.Signal, 1), cancel, logger)
	runGroup.Add(sigListener.Execute, sigListener.Interrupt)

	if err := runGroup.Run(); err != nil {
		return nil, err
	}

	// The signal listener may have finished first
	if runErr != nil {
		return nil, runErr
	}
	return report, nil
}

// toolPath resolves a tool given as a path against the working
// directory, and makes it absolute as tools may run elsewhere. A bare
// name is left for $PATH.
func toolPath(opts dist.Options, p string) (string, error) {
	if !strings.ContainsAny(p, `/\`) {
		return p, nil
	}

	abs, err := filepath.Abs(opts.Path(filepath.FromSlash(p)))
	if err != nil {
		return "", errors.Wrapf(err, "resolving tool %s", p)
	}
	return abs, nil
}
