package distkit

import (
	"fmt"

	"github.com/pkg/errors"
)

// MissingInputError is returned when an optional input (a runtime
// tree, a license file, a JRE archive) is not where it should be.
// Callers decide whether that is worth a warning or a failure.
type MissingInputError struct {
	What string
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s: %s", e.What, e.Path)
}

func missingInput(what, path string) error {
	return &MissingInputError{What: what, Path: path}
}

// IsMissingInput reports whether err, or anything it wraps, is a
// *MissingInputError.
func IsMissingInput(err error) bool {
	var mi *MissingInputError
	return errors.As(err, &mi)
}
