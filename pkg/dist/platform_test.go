package dist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlatformNames(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		platform        Platform
		expectedProduct string
		expectedName    string
	}{
		{
			platform:        Windows,
			expectedProduct: filepath.Join("build", "win32.win32.x86_64", "openLCA"),
			expectedName:    "openLCA_win64_2.1.3_2024-05-01.zip",
		},
		{
			platform:        Linux,
			expectedProduct: filepath.Join("build", "linux.gtk.x86_64", "openLCA"),
			expectedName:    "openLCA_linux64_2.1.3_2024-05-01.zip",
		},
		{
			platform:        MacOS,
			expectedProduct: filepath.Join("build", "macosx.cocoa.x86_64", "openLCA"),
			expectedName:    "openLCA_macOS_2.1.3_2024-05-01.zip",
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expectedProduct, tt.platform.ProductDir("build"), tt.platform)
		require.Equal(t, tt.expectedName, tt.platform.ArtifactName("2.1.3_2024-05-01", "zip"), tt.platform)
	}
}

func TestParseLocales(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		in          string
		expected    []Locale
		expectedErr bool
	}{
		{
			in:       DefaultLocales,
			expected: []Locale{{Code: "en", Folder: "english"}, {Code: "de", Folder: "german"}},
		},
		{
			in:       " fr : french ,",
			expected: []Locale{{Code: "fr", Folder: "french"}},
		},
		{in: "", expectedErr: true},
		{in: "en", expectedErr: true},
		{in: "en:english,de:", expectedErr: true},
		{in: "en:english:uk", expectedErr: true},
	}

	for _, tt := range tests {
		locales, err := ParseLocales(tt.in)
		if tt.expectedErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.expected, locales, tt.in)
	}
}

func TestOptionsPath(t *testing.T) {
	t.Parallel()

	opts := Options{WorkDir: filepath.Join("src", "olca-app-build")}
	require.Equal(t, filepath.Join("src", "olca-app-build", "build", "dist"), opts.Path(filepath.Join("build", "dist")))
	require.Equal(t, filepath.Join("src", "olca-app", "META-INF", "MANIFEST.MF"), opts.Path(DefaultOptions().Manifest))

	abs, err := filepath.Abs("dist")
	require.NoError(t, err)
	require.Equal(t, abs, opts.Path(abs))
}
