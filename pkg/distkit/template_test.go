package distkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillTemplate(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		"lang":    "de",
		"heap":    "3584M",
		"version": "2.1.3",
		"unused":  "whatever",
	}

	var tests = []struct {
		in  string
		out string
	}{
		{in: "", out: ""},
		{in: "no placeholders", out: "no placeholders"},
		{in: "-nl\n{lang}\n-vmargs\n-Xmx{heap}\n", out: "-nl\nde\n-vmargs\n-Xmx3584M\n"},
		{in: "{version}{version}", out: "2.1.32.1.3"},
		{in: `!define VERSION "{version}"`, out: `!define VERSION "2.1.3"`},
		{in: "Function .onInit {{ }}", out: "Function .onInit { }"},
		{in: "{{lang}}", out: "{lang}"},
	}

	for _, tt := range tests {
		out, err := FillTemplate(tt.in, values)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.out, out)

		// Same input, same output
		again, err := FillTemplate(tt.in, values)
		require.NoError(t, err)
		require.Equal(t, out, again)
	}
}

func TestFillTemplateMissing(t *testing.T) {
	t.Parallel()

	_, err := FillTemplate("{launcher_jar} {launcher_lib} {launcher_jar}", map[string]string{})
	require.Error(t, err)

	var missing *MissingTemplateValueError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"launcher_jar", "launcher_lib"}, missing.Names)
}

func TestFillTemplateMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"{lang",
		"lang}",
		"{}",
		"{la ng}",
		"{0}",
		"{heap:>10}",
	} {
		_, err := FillTemplate(in, map[string]string{"lang": "en", "heap": "1G"})
		require.Error(t, err, in)
	}
}

func TestRenderTemplateFileLatin1(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "openLCA_win.ini")
	dst := filepath.Join(dir, "german", "openLCA.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), DirMode))
	require.NoError(t, os.WriteFile(src, []byte("-nl\n{lang}\n-Dname=Ökobilanz\n"), FileMode))

	require.NoError(t, RenderTemplateFile(context.TODO(), src, dst, map[string]string{"lang": "de"}, Latin1))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, []byte("-nl\nde\n-Dname=\xd6kobilanz\n"), b)
}

func TestRenderTemplateFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "setup.nsi")
	dst := filepath.Join(dir, "out.nsi")
	require.NoError(t, os.WriteFile(src, []byte("Name \"{name}\" {version}\n"), FileMode))

	// missing value
	require.Error(t, RenderTemplateFile(context.TODO(), src, dst, map[string]string{"version": "1"}, Latin1))
	require.False(t, Exists(dst))

	// not representable in iso-8859-1
	err := RenderTemplateFile(context.TODO(), src, dst, map[string]string{"version": "1", "name": "openLCA €"}, Latin1)
	require.Error(t, err)

	// fine as utf-8
	require.NoError(t, RenderTemplateFile(context.TODO(), src, dst, map[string]string{"version": "1", "name": "openLCA €"}, UTF8))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "Name \"openLCA €\" 1\n", string(b))

	// missing template
	err = RenderTemplateFile(context.TODO(), filepath.Join(dir, "nope"), dst, nil, UTF8)
	require.True(t, IsMissingInput(err))
}
