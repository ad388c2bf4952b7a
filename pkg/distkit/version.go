package distkit

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/superkruger/olca-app/pkg/contexts/ctxlog"
	"go.opencensus.io/trace"
)

const manifestVersionKey = "Bundle-Version"

// ErrNoVersion is returned when a manifest has no usable
// Bundle-Version line.
var ErrNoVersion = errors.New("no Bundle-Version found")

// ReadManifestVersion returns the value of the first Bundle-Version
// header in the manifest at path.
func ReadManifestVersion(ctx context.Context, path string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "distkit.ReadManifestVersion")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	fh, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening manifest")
	}
	defer fh.Close()

	version, err := parseManifestVersion(bufio.NewScanner(fh))
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}

	// OSGi versions may carry a fourth qualifier segment. That's
	// fine for file names, but worth a note.
	if _, err := semver.NewVersion(version); err != nil {
		level.Warn(logger).Log(
			"msg", "manifest version is not a semantic version",
			"version", version,
			"err", err,
		)
	}

	level.Debug(logger).Log("msg", "read version", "manifest", path, "version", version)
	return version, nil
}

func parseManifestVersion(scanner *bufio.Scanner) (string, error) {
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(text, manifestVersionKey) {
			continue
		}

		fields := strings.Split(text, ":")
		if len(fields) < 2 {
			return "", ErrNoVersion
		}

		version := strings.TrimSpace(fields[1])
		if version == "" {
			return "", ErrNoVersion
		}
		return version, nil
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoVersion
}

// VersionDate joins version and the calendar date of t, eg:
// 2.1.3_2024-05-01
func VersionDate(version string, t time.Time) string {
	return fmt.Sprintf("%s_%s", version, t.Format("2006-01-02"))
}
