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

const (
	appName = "openLCA.app"

	// the bundle launcher looks for this name in Contents/MacOS
	bundleExecutable = "eclipse"
)

// bundleLayout names the directories of the app bundle.
type bundleLayout struct {
	app      string
	contents string
	eclipse  string
	macos    string
}

func newBundleLayout(product string) bundleLayout {
	app := filepath.Join(product, appName)
	contents := filepath.Join(app, "Contents")
	return bundleLayout{
		app:      app,
		contents: contents,
		eclipse:  filepath.Join(contents, "Eclipse"),
		macos:    filepath.Join(contents, "MacOS"),
	}
}

// packMacOS turns the Eclipse product tree into an app bundle and
// produces a tar.gz of the product directory. Without the launcher
// references or a JRE the bundle can't start, so either missing fails
// the stage before anything is archived.
func (r *runner) packMacOS(ctx context.Context, product string) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "dist.packMacOS")
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	bundle := newBundleLayout(product)

	level.Info(logger).Log("msg", "move folders around", "bundle", bundle.app)
	if err := r.layoutBundle(ctx, product, bundle); err != nil {
		return nil, err
	}

	if err := r.writeEclipseIni(ctx, bundle); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(filepath.Join(product, "MacOS")); err != nil {
		level.Warn(logger).Log("msg", "could not remove MacOS folder", "err", err)
	}
	if err := os.Remove(filepath.Join(product, "Info.plist")); err != nil && !os.IsNotExist(err) {
		level.Warn(logger).Log("msg", "could not remove Info.plist", "err", err)
	}

	if err := r.bundleJRE(ctx, "jre-*-macosx-x64.tar", bundle.app); err != nil {
		return nil, errors.Wrap(err, "bundling jre")
	}

	_, err := distkit.CopyMatching(ctx, r.runtimePath("julia", "macos"), "*.*", bundle.eclipse)
	if err := r.optional(ctx, "copying native libraries", err); err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "create distribution package")
	gz, err := archive.TarGz(ctx, r.opts.Archiver, product,
		filepath.Join(r.outputDir, MacOS.ArtifactBase(r.versionDate)))
	if err != nil {
		return nil, r.tool(ctx, "creating tar.gz", err)
	}

	return []string{gz}, nil
}

// layoutBundle moves the product tree into the bundle's Contents.
func (r *runner) layoutBundle(ctx context.Context, product string, bundle bundleLayout) error {
	for _, dir := range []string{bundle.eclipse, bundle.macos} {
		if err := os.MkdirAll(dir, distkit.DirMode); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	infoPlist := filepath.Join(r.opts.Path(r.opts.MacOSDir), "Info.plist")
	err := distkit.InstallInfoPlist(ctx, infoPlist, filepath.Join(bundle.contents, "Info.plist"), bundleExecutable)
	if err := r.optional(ctx, "copying Info.plist", err); err != nil {
		return err
	}

	moves := []struct {
		name     string
		dst      string
		required bool
	}{
		{name: "configuration", dst: bundle.eclipse, required: true},
		{name: "plugins", dst: bundle.eclipse, required: true},
		{name: ".eclipseproduct", dst: bundle.eclipse},
		{name: "Resources", dst: bundle.contents, required: true},
	}
	for _, m := range moves {
		err := distkit.Move(filepath.Join(product, m.name), m.dst)
		if m.required && err != nil {
			return errors.Wrapf(err, "moving %s", m.name)
		}
		if err := r.optional(ctx, "moving "+m.name, err); err != nil {
			return err
		}
	}

	launcher := filepath.Join(product, "MacOS", productName)
	executable := filepath.Join(bundle.macos, bundleExecutable)
	if err := distkit.CopyFile(launcher, executable); err != nil {
		return errors.Wrap(err, "copying launcher")
	}
	if err := os.Chmod(executable, 0755); err != nil {
		return errors.Wrapf(err, "chmod %s", executable)
	}

	return nil
}

// writeEclipseIni fills the ini template with the launcher jar and the
// native launcher library found in the relocated plugins.
func (r *runner) writeEclipseIni(ctx context.Context, bundle bundleLayout) error {
	plugins := filepath.Join(bundle.eclipse, "plugins")

	jar, err := distkit.FindOne(plugins, "*launcher*.jar")
	if err != nil {
		return errors.Wrap(err, "locating launcher jar")
	}

	lib, err := distkit.FindOne(plugins, "*launcher.cocoa.macosx*")
	if err != nil {
		return errors.Wrap(err, "locating launcher library")
	}

	values := map[string]string{
		"launcher_jar": filepath.Base(jar),
		"launcher_lib": filepath.Base(lib),
	}
	tmpl := filepath.Join(r.opts.Path(r.opts.MacOSDir), "openLCA.ini")
	if err := distkit.RenderTemplateFile(ctx, tmpl, filepath.Join(bundle.eclipse, "eclipse.ini"), values, distkit.UTF8); err != nil {
		return errors.Wrap(err, "writing eclipse.ini")
	}

	return nil
}
