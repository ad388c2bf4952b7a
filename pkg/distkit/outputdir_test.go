package distkit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build", "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old", "nested"), DirMode))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openLCA_win64_1.0.0_2020-01-01.zip"), []byte("stale"), FileMode))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old", "nested", "x.txt"), []byte("stale"), FileMode))

	require.NoError(t, ResetOutputDir(context.TODO(), dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestResetOutputDirCreates(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	require.NoError(t, ResetOutputDir(context.TODO(), dir))
	require.NoError(t, IsDirectory(dir))

	// Running twice is fine
	require.NoError(t, ResetOutputDir(context.TODO(), dir))
	require.NoError(t, IsDirectory(dir))
}

func TestResetOutputDirOverFile(t *testing.T) {
	t.Parallel()

	// A plain file where the directory should be is removed too.
	dir := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), FileMode))

	require.NoError(t, ResetOutputDir(context.TODO(), dir))
	require.NoError(t, IsDirectory(dir))
}
