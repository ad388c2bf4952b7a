package distkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type FindErrorKind string

const (
	NotFound  FindErrorKind = "not found"
	Ambiguous FindErrorKind = "ambiguous"
)

type FindError struct {
	Kind    FindErrorKind
	Dir     string
	Pattern string
	Matches []string
}

func (e *FindError) Error() string {
	if e.Kind == Ambiguous {
		return fmt.Sprintf("%s: %d entries in %s match %q: %s", e.Kind, len(e.Matches), e.Dir, e.Pattern, strings.Join(e.Matches, ", "))
	}
	return fmt.Sprintf("%s: nothing in %s matches %q", e.Kind, e.Dir, e.Pattern)
}

// IsNotFound reports whether err is a *FindError for a pattern that
// matched nothing.
func IsNotFound(err error) bool {
	var fe *FindError
	return errors.As(err, &fe) && fe.Kind == NotFound
}

// FindAll returns the paths of the entries directly under dir whose
// names match the filepath.Match pattern, sorted by name. As with
// shell globs, dot files only match patterns that start with a dot.
func FindAll(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "bad pattern %q", pattern)
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(pattern, ".") {
			continue
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches, nil
}

// FindOne returns the single entry under dir matching pattern. Zero or
// several matches are a *FindError.
func FindOne(dir, pattern string) (string, error) {
	matches, err := FindAll(dir, pattern)
	if err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", &FindError{Kind: NotFound, Dir: dir, Pattern: pattern}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return "", &FindError{Kind: Ambiguous, Dir: dir, Pattern: pattern, Matches: names}
	}
}
