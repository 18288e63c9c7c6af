package test

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// runBuildScript executes scripts/build.sh with the given extra environment
// and arguments, returning combined output and the run error.
func runBuildScript(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()

	scriptPath := filepath.Join("..", "build.sh")
	cmd := exec.Command("bash", append([]string{scriptPath}, args...)...)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String() + stderr.String(), err
}

func TestBuildScriptExecution(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat(filepath.Join("..", "build.sh")); os.IsNotExist(err) {
		t.Fatal("build script does not exist at scripts/build.sh")
	}

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + t.TempDir()}, "v1.0.0")
	if err != nil {
		t.Fatalf("expected build script to succeed, got error: %v\noutput: %s", err, output)
	}
	if output == "" {
		t.Error("expected build script to produce output")
	}
}

func TestBuildScriptVersionFromFile(t *testing.T) {
	t.Parallel()

	versionFile := filepath.Join(t.TempDir(), "VERSION")
	if err := os.WriteFile(versionFile, []byte("v2.1.0-beta\n"), 0o644); err != nil {
		t.Fatalf("failed to create VERSION file: %v", err)
	}

	output, err := runBuildScript(t,
		[]string{"VERSION_FILE=" + versionFile, "OUTPUT_DIR=" + t.TempDir()})
	if err != nil {
		t.Fatalf("expected build script to read version from file, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "v2.1.0-beta") {
		t.Errorf("expected output to contain version from VERSION file, got: %s", output)
	}
}

func TestBuildScriptVersionArgument(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + t.TempDir()}, "v3.0.0-alpha.1")
	if err != nil {
		t.Fatalf("expected build script to accept version argument, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "v3.0.0-alpha.1") {
		t.Errorf("expected output to contain version from argument, got: %s", output)
	}
}

func TestBuildScriptGitCommitInfo(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + t.TempDir()}, "v1.0.0")
	if err != nil {
		t.Fatalf("expected build script to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "commit") {
		t.Error("expected build output to include git commit information")
	}
}

func TestBuildScriptBinaryOutput(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + outputDir}, "v1.0.0")
	if err != nil {
		t.Fatalf("expected build script to succeed, got error: %v\noutput: %s", err, output)
	}

	binary := filepath.Join(outputDir, "esmconvert")
	if _, err := os.Stat(binary); os.IsNotExist(err) {
		t.Errorf("expected binary %s to be created", binary)
	}
}

func TestBuildScriptLDFlags(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + t.TempDir()}, "v2.5.0-rc1")
	if err != nil {
		t.Fatalf("expected build script to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "-ldflags") {
		t.Error("expected build script to use ldflags for version injection")
	}
	if !strings.Contains(output, "v2.5.0-rc1") {
		t.Error("expected ldflags to contain the release version")
	}
}

func TestBuildScriptMissingToolchain(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, []string{"PATH="}, "v1.0.0")
	if err == nil {
		t.Error("expected build script to fail when go is not in PATH")
	}
	if output == "" {
		t.Error("expected build script to report an error message when failing")
	}
}

func TestBuildScriptHelpOption(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, nil, "--help")
	if err != nil {
		t.Fatalf("expected --help to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(strings.ToLower(output), "usage") {
		t.Error("expected help output to contain usage information")
	}
}

func TestBuildScriptVerboseMode(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + t.TempDir()}, "-v", "v1.0.0")
	if err != nil {
		t.Fatalf("expected verbose build to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "go build") {
		t.Error("expected verbose mode to print the go build command")
	}
}

func TestBuildScriptCleanBuild(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	stale := filepath.Join(outputDir, "stale-artifact")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to seed output dir: %v", err)
	}

	output, err := runBuildScript(t, []string{"OUTPUT_DIR=" + outputDir}, "--clean", "v1.0.0")
	if err != nil {
		t.Fatalf("expected clean build to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(strings.ToLower(output), "clean") {
		t.Error("expected clean build mode to be mentioned in output")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected clean build to remove stale artifacts from the output dir")
	}
}

func TestBuildScriptPlatformSelection(t *testing.T) {
	t.Parallel()

	output, err := runBuildScript(t,
		[]string{"OUTPUT_DIR=" + t.TempDir()}, "--platform", "linux/amd64", "v1.0.0")
	if err != nil {
		t.Fatalf("expected platform build to succeed, got error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "linux/amd64") {
		t.Error("expected platform information to be included in build output")
	}
}

func TestBuildScriptVersionValidation(t *testing.T) {
	t.Parallel()

	invalidVersions := []string{
		"not-a-version",
		"", // no argument and no VERSION file
		"1.2.3",
		"v1.2",
	}

	for _, invalidVersion := range invalidVersions {
		t.Run(fmt.Sprintf("InvalidVersion_%s", invalidVersion), func(t *testing.T) {
			t.Parallel()

			var args []string
			if invalidVersion != "" {
				args = append(args, invalidVersion)
			}

			// Point VERSION_FILE at a path that does not exist so the empty
			// case cannot fall back to a checked-in VERSION file.
			env := []string{"VERSION_FILE=" + filepath.Join(t.TempDir(), "VERSION")}
			output, err := runBuildScript(t, env, args...)
			if err == nil {
				t.Errorf("expected build script to reject version %q", invalidVersion)
			}
			if !strings.Contains(strings.ToLower(output), "invalid version") {
				t.Errorf("expected validation error for %q, got: %s", invalidVersion, output)
			}
		})
	}
}
