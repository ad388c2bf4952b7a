package distkit

import (
	"os"

	"github.com/pkg/errors"
)

const (
	DirMode  = 0755
	FileMode = 0644
)

// Exists reports whether something is present at path. Stat errors
// other than not-exist count as present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDirectory returns an error unless d exists and is a directory.
func IsDirectory(d string) error {
	dStat, err := os.Stat(d)

	if os.IsNotExist(err) {
		return errors.Wrapf(err, "missing directory %s", d)
	}
	if err != nil {
		return errors.Wrapf(err, "stat %s", d)
	}

	if !dStat.IsDir() {
		return errors.Errorf("%s isn't a directory", d)
	}

	return nil
}
