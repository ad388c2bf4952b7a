package distkit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadManifestVersion(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name     string
		manifest string
		out      string
	}{
		{
			name:     "plain",
			manifest: "Bundle-Version: 2.1.3\n",
			out:      "2.1.3",
		},
		{
			name: "surrounded",
			manifest: "Manifest-Version: 1.0\n" +
				"Bundle-ManifestVersion: 2\n" +
				"Bundle-Name: openLCA\n" +
				"Bundle-Version: 2.1.3\n" +
				"Bundle-Vendor: GreenDelta\n",
			out: "2.1.3",
		},
		{
			name:     "extra whitespace",
			manifest: "   Bundle-Version:     2.1.3   \r\n",
			out:      "2.1.3",
		},
		{
			name:     "osgi qualifier",
			manifest: "Bundle-Version: 2.0.0.qualifier\n",
			out:      "2.0.0.qualifier",
		},
		{
			name:     "first wins",
			manifest: "Bundle-Version: 1.0.0\nBundle-Version: 9.9.9\n",
			out:      "1.0.0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "MANIFEST.MF")
			require.NoError(t, os.WriteFile(path, []byte(tt.manifest), FileMode))

			version, err := ReadManifestVersion(context.TODO(), path)
			require.NoError(t, err)
			require.Equal(t, tt.out, version)
		})
	}
}

func TestReadManifestVersionMissing(t *testing.T) {
	t.Parallel()

	for _, manifest := range []string{
		"",
		"Manifest-Version: 1.0\nBundle-Name: openLCA\n",
		"Bundle-Version:\n",
		"Bundle-Version\n",
	} {
		path := filepath.Join(t.TempDir(), "MANIFEST.MF")
		require.NoError(t, os.WriteFile(path, []byte(manifest), FileMode))

		_, err := ReadManifestVersion(context.TODO(), path)
		require.ErrorIs(t, err, ErrNoVersion, "manifest %q", manifest)
	}

	_, err := ReadManifestVersion(context.TODO(), filepath.Join(t.TempDir(), "nope.MF"))
	require.Error(t, err)
}

func TestVersionDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.May, 1, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "3.0.0_2024-05-01", VersionDate("3.0.0", day))
}
