package dist

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"github.com/superkruger/olca-app/pkg/distkit"
	"github.com/superkruger/olca-app/pkg/distkit/archive"
	"go.opencensus.io/trace"
)

// packWindows produces the zip and the installer. The installer is
// assembled in the platform build directory, next to the product.
func (r *runner) packWindows(ctx context.Context, product string) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "dist.packWindows")
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	packDir := filepath.Dir(product)

	if err := r.optional(ctx, "copying licenses",
		distkit.CopyLicenses(ctx, r.opts.Path(r.opts.ResourcesDir), product)); err != nil {
		return nil, err
	}

	if err := r.optional(ctx, "copying jre", r.copyWindowsJRE(ctx, product)); err != nil {
		return nil, err
	}

	_, err := distkit.CopyMatching(ctx, r.runtimePath("julia", "win64"), "*.*", product)
	if err := r.optional(ctx, "copying julia libraries", err); err != nil {
		return nil, err
	}

	var artifacts []string

	zipFile := r.artifactPath(Windows, "zip")
	level.Info(logger).Log("msg", "create zip", "path", zipFile)
	if err := archive.Zip(ctx, packDir, zipFile); err != nil {
		return nil, errors.Wrap(err, "creating zip")
	}
	artifacts = append(artifacts, zipFile)

	script, err := r.prepareInstaller(ctx, packDir)
	if err != nil {
		return artifacts, err
	}
	if script == "" {
		return artifacts, nil
	}

	level.Info(logger).Log("msg", "build installer", "script", script)
	if err := r.opts.Installer.Build(ctx, script); err != nil {
		return artifacts, r.tool(ctx, "building installer", err)
	}

	exeFile := r.artifactPath(Windows, "exe")
	if err := distkit.Rename(filepath.Join(packDir, "setup.exe"), exeFile); err != nil {
		return artifacts, errors.Wrap(err, "moving installer")
	}
	artifacts = append(artifacts, exeFile)

	return artifacts, nil
}

// copyWindowsJRE copies the JRE tree into the product, unless there is
// one already.
func (r *runner) copyWindowsJRE(ctx context.Context, product string) error {
	src := r.runtimePath("jre", "win64")
	if !distkit.Exists(src) {
		return &distkit.MissingInputError{What: "JRE", Path: src}
	}

	dst := filepath.Join(product, "jre")
	if distkit.Exists(dst) {
		level.Debug(ctxlog.FromContext(ctx)).Log("msg", "jre already present", "dir", dst)
		return nil
	}

	return distkit.CopyTree(src, dst)
}

// prepareInstaller puts the static installer files, the localized
// launcher configurations and the installer script into packDir. It
// returns the script path, or "" when the script template is missing
// and that is tolerated.
func (r *runner) prepareInstaller(ctx context.Context, packDir string) (string, error) {
	_, err := distkit.CopyMatching(ctx, filepath.Join(r.opts.Path(r.opts.ResourcesDir), "installer_static_win"), "*", packDir)
	if err := r.optional(ctx, "copying installer resources", err); err != nil {
		return "", err
	}

	iniTemplate := r.templatePath("openLCA_win.ini")
	for _, locale := range r.opts.Locales {
		dir := filepath.Join(packDir, locale.Folder)
		if err := os.MkdirAll(dir, distkit.DirMode); err != nil {
			return "", errors.Wrapf(err, "creating %s", dir)
		}

		values := map[string]string{
			"lang": locale.Code,
			"heap": r.opts.HeapSize,
		}
		err := distkit.RenderTemplateFile(ctx, iniTemplate, filepath.Join(dir, "openLCA.ini"), values, distkit.Latin1)
		if err := r.optional(ctx, "writing "+locale.Code+" ini", err); err != nil {
			return "", err
		}
	}

	script := filepath.Join(packDir, "setup.nsi")
	err = distkit.RenderTemplateFile(ctx, r.templatePath("setup.nsi"), script, map[string]string{"version": r.version}, distkit.Latin1)
	if err != nil {
		if err := r.optional(ctx, "writing installer script", err); err != nil {
			return "", err
		}
		return "", nil
	}

	return script, nil
}
