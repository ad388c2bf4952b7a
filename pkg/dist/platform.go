package dist

import (
	"fmt"
	"path/filepath"
)

// Platform is one of the operating systems openLCA ships for.
type Platform string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	MacOS   Platform = "macos"
)

// Platforms in the order their stages run.
var Platforms = []Platform{Windows, Linux, MacOS}

// productName is the directory the product build leaves the
// application in, below the platform directory.
const productName = "openLCA"

// BuildName is the directory the product build uses for the platform,
// named after the os.ws.arch triple.
func (p Platform) BuildName() string {
	switch p {
	case Windows:
		return "win32.win32.x86_64"
	case Linux:
		return "linux.gtk.x86_64"
	case MacOS:
		return "macosx.cocoa.x86_64"
	}
	return ""
}

// Tag is what identifies the platform in artifact names.
func (p Platform) Tag() string {
	switch p {
	case Windows:
		return "win64"
	case Linux:
		return "linux64"
	case MacOS:
		return "macOS"
	}
	return ""
}

// ProductDir is where the platform's product tree lives below buildDir.
func (p Platform) ProductDir(buildDir string) string {
	return filepath.Join(buildDir, p.BuildName(), productName)
}

// ArtifactBase is an artifact name without its extension, eg:
// openLCA_linux64_2.1.3_2024-05-01
func (p Platform) ArtifactBase(versionDate string) string {
	return fmt.Sprintf("openLCA_%s_%s", p.Tag(), versionDate)
}

func (p Platform) ArtifactName(versionDate, ext string) string {
	return p.ArtifactBase(versionDate) + "." + ext
}

func (p Platform) String() string {
	return string(p)
}
