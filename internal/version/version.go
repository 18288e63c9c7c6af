// Package version holds build version information for the esmconvert
// application and formats it for CLI and health output.
//
// The version variables are set during build using ldflags:
//
//	-ldflags "-X esmconvert/internal/version.version=v1.0.0 -X esmconvert/internal/version.commit=abc123 -X esmconvert/internal/version.buildTime=2025-01-01T00:00:00Z"
package version

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// These variables are set via ldflags during build.
//
//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	// version holds the application version (e.g., "v1.0.0").
	version string
	// commit holds the git commit hash (e.g., "abc123def456").
	commit string
	// buildTime holds the build timestamp in RFC3339 format.
	buildTime string
)

// ApplicationName is the name of the application displayed in version output.
const ApplicationName = "esmconvert"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Format constants for different output styles.
const (
	LabelVersion   = "Version"
	LabelCommit    = "Commit"
	LabelBuilt     = "Built"
	fieldSeparator = ": "
	lineSeparator  = "\n"
)

// VersionInfo carries version information with defaults applied.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NewVersionInfo creates a VersionInfo from the build-time variables,
// substituting defaults for values the build did not inject.
func NewVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   getVersionWithDefault(),
		Commit:    getCommitWithDefault(),
		BuildTime: getBuildTimeWithDefault(),
	}
}

func getVersionWithDefault() string {
	if version == "" {
		return DefaultVersion
	}
	return version
}

func getCommitWithDefault() string {
	if commit == "" {
		return DefaultCommit
	}
	return commit
}

func getBuildTimeWithDefault() string {
	if buildTime == "" {
		return DefaultBuildTime
	}
	return buildTime
}

// FormatShort returns a single-line output containing only the version number.
func (vi *VersionInfo) FormatShort() string {
	return vi.Version
}

// FormatFull returns a multi-line output with the application name, version,
// commit, and build time.
func (vi *VersionInfo) FormatFull() string {
	var builder strings.Builder

	builder.WriteString(ApplicationName)
	builder.WriteString(lineSeparator)
	builder.WriteString(LabelVersion)
	builder.WriteString(fieldSeparator)
	builder.WriteString(vi.Version)
	builder.WriteString(lineSeparator)
	builder.WriteString(LabelCommit)
	builder.WriteString(fieldSeparator)
	builder.WriteString(vi.Commit)
	builder.WriteString(lineSeparator)
	builder.WriteString(LabelBuilt)
	builder.WriteString(fieldSeparator)
	builder.WriteString(vi.BuildTime)
	builder.WriteString(lineSeparator)

	return builder.String()
}

// WriteShort writes the short format (version only) to the provided writer.
func (vi *VersionInfo) WriteShort(w io.Writer) error {
	_, err := fmt.Fprintln(w, vi.FormatShort())
	return err
}

// WriteFull writes the full format to the provided writer.
func (vi *VersionInfo) WriteFull(w io.Writer) error {
	_, err := fmt.Fprint(w, vi.FormatFull())
	return err
}

// Write formats the version based on the short flag and writes it to the
// provided writer.
func (vi *VersionInfo) Write(w io.Writer, short bool) error {
	if short {
		return vi.WriteShort(w)
	}
	return vi.WriteFull(w)
}

// GetVersion returns the current version information.
func GetVersion() *VersionInfo {
	return NewVersionInfo()
}

// SetBuildVars sets the build-time variables. This is primarily used for
// testing; builds should inject them via ldflags.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}

// ResetBuildVars resets all build variables to empty values. This is
// primarily used for testing to ensure clean state.
func ResetBuildVars() {
	version = ""
	commit = ""
	buildTime = ""
}

// IsDevelopment returns true if the version indicates a development build.
func (vi *VersionInfo) IsDevelopment() bool {
	return vi.Version == DefaultVersion
}

// GetBuildTime attempts to parse the build time as a timestamp. Returns a
// zero time if the build time cannot be parsed.
func (vi *VersionInfo) GetBuildTime() time.Time {
	if vi.BuildTime == DefaultBuildTime {
		return time.Time{}
	}

	parsedTime, err := time.Parse(time.RFC3339, vi.BuildTime)
	if err != nil {
		formats := []string{
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02T15:04:05Z",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}

		for _, format := range formats {
			if parsedTime, err = time.Parse(format, vi.BuildTime); err == nil {
				return parsedTime
			}
		}
		return time.Time{}
	}

	return parsedTime
}
