package dist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Status string

const (
	Succeeded Status = "succeeded"
	Skipped   Status = "skipped"
	Failed    Status = "failed"
)

// Result is the outcome of one platform stage. A failed stage may still
// list the artifacts it produced before failing.
type Result struct {
	Platform  Platform
	Status    Status
	Artifacts []string
	Reason    string // why it was skipped
	Err       error
}

// Report collects the stage results of a run.
type Report struct {
	Version     string
	VersionDate string
	Started     time.Time
	Results     []Result
}

// Failed is true when any stage failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == Failed {
			return true
		}
	}
	return false
}

// Artifacts returns every artifact produced, in stage order.
func (r *Report) Artifacts() []string {
	var artifacts []string
	for _, res := range r.Results {
		artifacts = append(artifacts, res.Artifacts...)
	}
	return artifacts
}

type yamlResult struct {
	Platform  string   `yaml:"platform"`
	Status    string   `yaml:"status"`
	Artifacts []string `yaml:"artifacts,omitempty"`
	Reason    string   `yaml:"reason,omitempty"`
	Error     string   `yaml:"error,omitempty"`
}

type yamlReport struct {
	Version     string       `yaml:"version"`
	VersionDate string       `yaml:"version_date"`
	Started     string       `yaml:"started"`
	Failed      bool         `yaml:"failed"`
	Stages      []yamlResult `yaml:"stages"`
}

func (r *Report) MarshalYAML() (interface{}, error) {
	out := yamlReport{
		Version:     r.Version,
		VersionDate: r.VersionDate,
		Started:     r.Started.Format(time.RFC3339),
		Failed:      r.Failed(),
	}
	for _, res := range r.Results {
		yr := yamlResult{
			Platform:  res.Platform.String(),
			Status:    string(res.Status),
			Artifacts: res.Artifacts,
			Reason:    res.Reason,
		}
		if res.Err != nil {
			yr.Error = res.Err.Error()
		}
		out.Stages = append(out.Stages, yr)
	}
	return out, nil
}

// WriteYAML writes the report to path.
func (r *Report) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshalling report")
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return errors.Wrapf(err, "writing report %s", path)
	}
	return nil
}

// PrintSummary writes a table with one row per stage.
func (r *Report) PrintSummary(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "openLCA %s\n", r.VersionDate)
	fmt.Fprintf(w, "Platform\tStatus\tDetail\n")
	for _, res := range r.Results {
		var detail string
		switch res.Status {
		case Succeeded:
			names := make([]string, len(res.Artifacts))
			for i, a := range res.Artifacts {
				names[i] = filepath.Base(a)
			}
			detail = strings.Join(names, ", ")
		case Skipped:
			detail = res.Reason
		case Failed:
			if res.Err != nil {
				detail = firstLine(res.Err.Error())
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Platform, res.Status, detail)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
