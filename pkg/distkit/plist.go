package distkit

import (
	"context"
	"os"

	"github.com/go-kit/kit/log/level"
	"github.com/groob/plist"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
)

// bundleInfo is the part of an app bundle's Info.plist we look at.
type bundleInfo struct {
	Executable string `plist:"CFBundleExecutable"`
	Identifier string `plist:"CFBundleIdentifier"`
	Name       string `plist:"CFBundleName"`
}

// InstallInfoPlist copies the Info.plist at src to dst unchanged. The
// file must decode as a property list. A CFBundleExecutable other than
// executable is logged, since the bundle would not start.
func InstallInfoPlist(ctx context.Context, src, dst, executable string) error {
	logger := ctxlog.FromContext(ctx)

	raw, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return missingInput("Info.plist", src)
	}
	if err != nil {
		return errors.Wrap(err, "reading Info.plist")
	}

	var info bundleInfo
	if err := plist.Unmarshal(raw, &info); err != nil {
		return errors.Wrapf(err, "decoding %s", src)
	}

	if info.Executable != executable {
		level.Warn(logger).Log(
			"msg", "Info.plist names a different bundle executable",
			"CFBundleExecutable", info.Executable,
			"expected", executable,
		)
	}

	if err := os.WriteFile(dst, raw, FileMode); err != nil {
		return errors.Wrapf(err, "writing %s", dst)
	}

	level.Debug(logger).Log("msg", "installed Info.plist", "bundle_id", info.Identifier, "name", info.Name)
	return nil
}
