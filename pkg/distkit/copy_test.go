package distkit

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), DirMode))
		require.NoError(t, os.WriteFile(p, []byte(content), FileMode))
	}
}

func TestCopyLicenses(t *testing.T) {
	t.Parallel()

	resources := t.TempDir()
	product := t.TempDir()
	writeFiles(t, resources, map[string]string{
		"OPENLCA_README.txt":   "readme",
		"licenses/epl-2.0.txt": "epl",
		"licenses/mpl/mpl.txt": "mpl",
	})

	require.NoError(t, CopyLicenses(context.TODO(), resources, product))

	b, err := os.ReadFile(filepath.Join(product, "OPENLCA_README.txt"))
	require.NoError(t, err)
	require.Equal(t, "readme", string(b))
	b, err = os.ReadFile(filepath.Join(product, "licenses", "mpl", "mpl.txt"))
	require.NoError(t, err)
	require.Equal(t, "mpl", string(b))
}

func TestCopyLicensesKeepsExisting(t *testing.T) {
	t.Parallel()

	resources := t.TempDir()
	product := t.TempDir()
	writeFiles(t, resources, map[string]string{
		"OPENLCA_README.txt":   "new readme",
		"licenses/epl-2.0.txt": "new",
	})
	writeFiles(t, product, map[string]string{
		"OPENLCA_README.txt":   "old readme",
		"licenses/epl-2.0.txt": "old",
	})

	require.NoError(t, CopyLicenses(context.TODO(), resources, product))

	// the readme is always replaced, the tree never is
	b, err := os.ReadFile(filepath.Join(product, "OPENLCA_README.txt"))
	require.NoError(t, err)
	require.Equal(t, "new readme", string(b))
	b, err = os.ReadFile(filepath.Join(product, "licenses", "epl-2.0.txt"))
	require.NoError(t, err)
	require.Equal(t, "old", string(b))
}

func TestCopyLicensesMissing(t *testing.T) {
	t.Parallel()

	resources := t.TempDir()
	product := t.TempDir()
	writeFiles(t, resources, map[string]string{
		"licenses/epl-2.0.txt": "epl",
	})

	err := CopyLicenses(context.TODO(), resources, product)
	require.True(t, IsMissingInput(err))

	// The tree still made it over
	require.True(t, Exists(filepath.Join(product, "licenses", "epl-2.0.txt")))
}

func TestCopyMatching(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := t.TempDir()
	writeFiles(t, src, map[string]string{
		"libjulia.dll":     "a",
		"libopenblas.dll":  "b",
		"README":           "no dot, no copy",
		"sub.dir/nested.x": "dirs are skipped",
	})

	copied, err := CopyMatching(context.TODO(), src, "*.*", dst)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dst, "libjulia.dll"),
		filepath.Join(dst, "libopenblas.dll"),
	}, copied)
	require.False(t, Exists(filepath.Join(dst, "README")))
	require.False(t, Exists(filepath.Join(dst, "sub.dir")))

	_, err = CopyMatching(context.TODO(), filepath.Join(src, "nope"), "*.*", dst)
	require.True(t, IsMissingInput(err))
}

func TestCopyTreeSymlinks(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	src := t.TempDir()
	writeFiles(t, src, map[string]string{"lib/server/libjvm.so": "jvm"})
	require.NoError(t, os.Symlink("server/libjvm.so", filepath.Join(src, "lib", "libjvm.so")))

	dst := filepath.Join(t.TempDir(), "jre")
	require.NoError(t, CopyTree(src, dst))

	target, err := os.Readlink(filepath.Join(dst, "lib", "libjvm.so"))
	require.NoError(t, err)
	require.Equal(t, "server/libjvm.so", target)

	require.Error(t, CopyTree(filepath.Join(src, "nope"), dst))
}

func TestMove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"openLCA/plugins/a.jar": "a",
	})
	target := filepath.Join(root, "openLCA", "openLCA.app", "Contents", "Eclipse")
	require.NoError(t, os.MkdirAll(target, DirMode))

	require.NoError(t, Move(filepath.Join(root, "openLCA", "plugins"), target))
	require.True(t, Exists(filepath.Join(target, "plugins", "a.jar")))
	require.False(t, Exists(filepath.Join(root, "openLCA", "plugins")))

	err := Move(filepath.Join(root, "openLCA", "plugins"), target)
	require.True(t, IsMissingInput(err))
}

func TestMoveDoesNotMerge(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"openLCA/plugins/new.jar":                              "new",
		"openLCA/openLCA.app/Contents/Eclipse/plugins/old.jar": "old",
	})
	target := filepath.Join(root, "openLCA", "openLCA.app", "Contents", "Eclipse")

	err := Move(filepath.Join(root, "openLCA", "plugins"), target)
	require.Error(t, err)
	require.False(t, IsMissingInput(err))

	require.True(t, Exists(filepath.Join(root, "openLCA", "plugins", "new.jar")))
	require.False(t, Exists(filepath.Join(target, "plugins", "new.jar")))
	require.True(t, Exists(filepath.Join(target, "plugins", "old.jar")))
}
