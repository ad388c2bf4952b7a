package distkit

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

type TextEncoding string

const (
	UTF8 TextEncoding = "utf-8"

	// Latin1 is what the NSIS installer and the Windows launcher ini
	// expect. Text that can't be represented is an error, not a
	// replacement character.
	Latin1 TextEncoding = "iso-8859-1"
)

// EncodeText converts text into the bytes for enc.
func EncodeText(text string, enc TextEncoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(text), nil
	case Latin1:
		b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, errors.Wrap(err, "encoding as iso-8859-1")
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown text encoding %q", enc)
	}
}

// WriteText writes text to path using enc, replacing any existing file.
func WriteText(path, text string, enc TextEncoding) error {
	b, err := EncodeText(text, enc)
	if err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := os.WriteFile(path, b, FileMode); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
