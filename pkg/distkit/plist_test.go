package distkit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"howett.net/plist"
)

// infoPlistFixture builds an Info.plist with `DHowett/go-plist`, so
// the groob decoder is checked against a second implementation.
func infoPlistFixture(t *testing.T, executable string) []byte {
	t.Helper()

	data := map[string]interface{}{
		"CFBundleExecutable":         executable,
		"CFBundleIdentifier":         "org.openlca.app",
		"CFBundleName":               "openLCA",
		"CFBundlePackageType":        "APPL",
		"CFBundleShortVersionString": "2.1.3",
		"LSMinimumSystemVersion":     "10.12",
	}
	b, err := plist.Marshal(data, plist.XMLFormat)
	require.NoError(t, err)
	return b
}

func TestInstallInfoPlist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Info.plist")
	dst := filepath.Join(dir, "Contents-Info.plist")
	content := infoPlistFixture(t, "eclipse")
	require.NoError(t, os.WriteFile(src, content, FileMode))

	var logBuf bytes.Buffer
	ctx := ctxlog.NewContext(context.TODO(), log.NewLogfmtLogger(&logBuf))

	require.NoError(t, InstallInfoPlist(ctx, src, dst, "eclipse"))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, content, b)
	require.NotContains(t, logBuf.String(), "different bundle executable")
}

func TestInstallInfoPlistWrongExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Info.plist")
	require.NoError(t, os.WriteFile(src, infoPlistFixture(t, "openLCA"), FileMode))

	var logBuf bytes.Buffer
	ctx := ctxlog.NewContext(context.TODO(), log.NewLogfmtLogger(&logBuf))

	require.NoError(t, InstallInfoPlist(ctx, src, filepath.Join(dir, "out.plist"), "eclipse"))
	require.Contains(t, logBuf.String(), "different bundle executable")
}

func TestInstallInfoPlistBroken(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Info.plist")
	dst := filepath.Join(dir, "out.plist")
	require.NoError(t, os.WriteFile(src, []byte("<plist><dict><key>"), FileMode))

	require.Error(t, InstallInfoPlist(context.TODO(), src, dst, "eclipse"))
	require.False(t, Exists(dst))

	err := InstallInfoPlist(context.TODO(), filepath.Join(dir, "nope.plist"), dst, "eclipse")
	require.True(t, IsMissingInput(err))
}
