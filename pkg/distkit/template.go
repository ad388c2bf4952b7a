package distkit

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

// MissingTemplateValueError lists the placeholders a template uses
// that had no value, in order of first appearance.
type MissingTemplateValueError struct {
	Names []string
}

func (e *MissingTemplateValueError) Error() string {
	return fmt.Sprintf("no value for template placeholder(s): %s", strings.Join(e.Names, ", "))
}

// FillTemplate replaces every `{name}` in text with values[name].
// `{{` and `}}` produce literal braces. Every placeholder must have a
// value; unused values are ignored.
func FillTemplate(text string, values map[string]string) (string, error) {
	var (
		out     strings.Builder
		missing []string
		seen    = make(map[string]bool)
	)
	out.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return "", errors.Errorf("unclosed placeholder at offset %d", i)
			}
			name := text[i+1 : i+1+end]
			if !isPlaceholderName(name) {
				return "", errors.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			if v, ok := values[name]; ok {
				out.WriteString(v)
			} else if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				out.WriteByte('}')
				i++
				continue
			}
			return "", errors.Errorf("single '}' at offset %d", i)
		default:
			out.WriteByte(c)
		}
	}

	if len(missing) > 0 {
		return "", &MissingTemplateValueError{Names: missing}
	}
	return out.String(), nil
}

func isPlaceholderName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// RenderTemplateFile fills the template at src and writes the result
// to dst using enc.
func RenderTemplateFile(ctx context.Context, src, dst string, values map[string]string, enc TextEncoding) error {
	ctx, span := trace.StartSpan(ctx, "distkit.RenderTemplateFile")
	defer span.End()

	raw, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return missingInput("template", src)
	}
	if err != nil {
		return errors.Wrap(err, "reading template")
	}

	// Output always has \n line endings, whatever the template was
	// checked out with.
	text, err := FillTemplate(strings.ReplaceAll(string(raw), "\r\n", "\n"), values)
	if err != nil {
		return errors.Wrapf(err, "filling template %s", src)
	}

	if err := WriteText(dst, text, enc); err != nil {
		return err
	}

	level.Debug(ctxlog.FromContext(ctx)).Log(
		"msg", "rendered template",
		"template", src,
		"output", dst,
		"encoding", enc,
	)
	return nil
}
