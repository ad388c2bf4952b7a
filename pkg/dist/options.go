package dist

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mixer/clock"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/distkit/archive"
	"github.com/superkruger/olca-app/pkg/distkit/nsis"
)

// Installer compiles an installer script. The script decides where
// the installer is written.
type Installer interface {
	Build(ctx context.Context, scriptPath string) error
}

// Locale is one translation of the Windows launcher configuration.
// Code is handed to the template as `lang`, Folder is the directory
// the installer picks the ini from.
type Locale struct {
	Code   string
	Folder string
}

const DefaultLocales = "en:english,de:german"

// ParseLocales parses a comma separated list of code:folder pairs.
func ParseLocales(s string) ([]Locale, error) {
	var locales []Locale
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, errors.Errorf("bad locale %q, expected code:folder", item)
		}
		locales = append(locales, Locale{
			Code:   strings.TrimSpace(parts[0]),
			Folder: strings.TrimSpace(parts[1]),
		})
	}
	if len(locales) == 0 {
		return nil, errors.New("no locales given")
	}
	return locales, nil
}

// Options configures a distribution run. Relative paths are resolved
// against WorkDir.
type Options struct {
	WorkDir      string
	OutputDir    string
	Manifest     string
	BuildDir     string // holds the per platform product trees
	RuntimeDir   string
	ResourcesDir string
	TemplatesDir string
	MacOSDir     string

	HeapSize string
	Locales  []Locale

	// StrictInputs turns a missing optional input into a stage
	// failure instead of a warning.
	StrictInputs bool

	// StrictTools fails a stage when an external tool fails. Without
	// it, the failure is logged and the stage carries on.
	StrictTools bool

	// Archiver defaults to the in-process archive.Native, so the
	// library works without 7za. The dist-builder command defaults to
	// 7-Zip instead.
	Archiver  archive.Archiver
	Installer Installer
	Clock     clock.Clock
}

// DefaultOptions returns the layout of the openLCA build project,
// relative to the current directory.
func DefaultOptions() Options {
	locales, _ := ParseLocales(DefaultLocales)
	return Options{
		WorkDir:      ".",
		OutputDir:    filepath.Join("build", "dist"),
		Manifest:     filepath.Join("..", "olca-app", "META-INF", "MANIFEST.MF"),
		BuildDir:     "build",
		RuntimeDir:   "runtime",
		ResourcesDir: "resources",
		TemplatesDir: "templates",
		MacOSDir:     "macos",
		HeapSize:     "3584M",
		Locales:      locales,
		StrictTools:  true,
	}
}

// withDefaults fills in whatever the caller left empty.
func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.WorkDir == "" {
		o.WorkDir = def.WorkDir
	}
	if o.OutputDir == "" {
		o.OutputDir = def.OutputDir
	}
	if o.Manifest == "" {
		o.Manifest = def.Manifest
	}
	if o.BuildDir == "" {
		o.BuildDir = def.BuildDir
	}
	if o.RuntimeDir == "" {
		o.RuntimeDir = def.RuntimeDir
	}
	if o.ResourcesDir == "" {
		o.ResourcesDir = def.ResourcesDir
	}
	if o.TemplatesDir == "" {
		o.TemplatesDir = def.TemplatesDir
	}
	if o.MacOSDir == "" {
		o.MacOSDir = def.MacOSDir
	}
	if o.HeapSize == "" {
		o.HeapSize = def.HeapSize
	}
	if len(o.Locales) == 0 {
		o.Locales = def.Locales
	}

	if o.Archiver == nil {
		o.Archiver = archive.NewNative()
	}
	if o.Installer == nil {
		// nsis makes the path absolute, as makensis runs in the installer directory
		o.Installer = nsis.New(nsis.WithMakensis(o.Path(filepath.Join("tools", "nsis-2.46", "makensis.exe"))))
	}
	if o.Clock == nil {
		o.Clock = clock.DefaultClock{}
	}

	return o
}

// Path resolves p against the working directory.
func (o Options) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.WorkDir, p)
}
