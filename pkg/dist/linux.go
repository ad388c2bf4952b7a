package dist

import (
	"context"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"github.com/superkruger/olca-app/pkg/distkit"
	"github.com/superkruger/olca-app/pkg/distkit/archive"
	"go.opencensus.io/trace"
)

// packLinux bundles the JRE and produces a tar.gz of the platform
// build directory.
func (r *runner) packLinux(ctx context.Context, product string) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "dist.packLinux")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	if err := r.optional(ctx, "copying licenses",
		distkit.CopyLicenses(ctx, r.opts.Path(r.opts.ResourcesDir), product)); err != nil {
		return nil, err
	}

	if distkit.Exists(filepath.Join(product, "jre")) {
		level.Debug(logger).Log("msg", "jre already present")
	} else if err := r.optional(ctx, "bundling jre", r.bundleJRE(ctx, "jre-*linux*x64*.tar", product)); err != nil {
		return nil, err
	}

	// The ini is replaced on every run, unlike the licenses.
	if err := r.optional(ctx, "copying ini", r.copyLinuxIni(product)); err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "create distribution package")
	gz, err := archive.TarGz(ctx, r.opts.Archiver, filepath.Dir(product),
		filepath.Join(r.outputDir, Linux.ArtifactBase(r.versionDate)))
	if err != nil {
		return nil, r.tool(ctx, "creating tar.gz", err)
	}

	return []string{gz}, nil
}

func (r *runner) copyLinuxIni(product string) error {
	src := r.templatePath("openLCA_linux.ini")
	if !distkit.Exists(src) {
		return &distkit.MissingInputError{What: "ini", Path: src}
	}
	return distkit.CopyFile(src, filepath.Join(product, "openLCA.ini"))
}
