package testutil

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var (
	// binaryPath caches the path to the built refcheck binary.
	binaryPath string
	buildMu    sync.Mutex
	buildErr   error
)

// CLIResult is the parsed JSON envelope of one CLI invocation.
type CLIResult struct {
	OK       bool
	Data     map[string]interface{}
	Error    *CLIError
	Warnings []CLIWarning
	RawJSON  string
	ExitCode int
}

// CLIError is a structured error from the CLI.
type CLIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
}

// CLIWarning is a warning from the CLI.
type CLIWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BuildCLI builds the refcheck binary once per test process and returns its path.
func BuildCLI(t *testing.T) string {
	t.Helper()

	buildMu.Lock()
	defer buildMu.Unlock()

	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err == nil {
			return binaryPath
		}
		// Some CI runners clean temp directories between packages.
		binaryPath = ""
		buildErr = nil
	}

	moduleRoot, err := findModuleRoot()
	if err != nil {
		buildErr = err
	} else if tmpDir, err := os.MkdirTemp("", "refcheck-cli-bin-*"); err != nil {
		buildErr = err
	} else {
		binName := "refcheck"
		if runtime.GOOS == "windows" {
			binName += ".exe"
		}
		binaryPath = filepath.Join(tmpDir, binName)
		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/refcheck")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			buildErr = &BuildError{Output: string(output), Err: err}
			binaryPath = ""
		}
	}

	if buildErr != nil {
		t.Fatalf("failed to build CLI: %v", buildErr)
	}
	return binaryPath
}

// BuildError is returned when the CLI binary fails to build.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return e.Err.Error() + "\n" + e.Output
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// RunCLI runs refcheck against the project with --root and --json set.
// HOME and XDG_CONFIG_HOME point into the test's temp space so a developer's
// global config never leaks into the run.
func (p *TestProject) RunCLI(args ...string) *CLIResult {
	p.t.Helper()
	binary := BuildCLI(p.t)

	cmdArgs := append([]string{"--root", p.Path, "--json"}, args...)
	cmd := exec.Command(binary, cmdArgs...)
	home := p.t.TempDir()
	cmd.Env = append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+filepath.Join(home, ".config"))
	output, err := cmd.Output()

	result := &CLIResult{RawJSON: string(output)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	var resp struct {
		OK       bool                   `json:"ok"`
		Data     map[string]interface{} `json:"data,omitempty"`
		Error    *CLIError              `json:"error,omitempty"`
		Warnings []CLIWarning           `json:"warnings,omitempty"`
	}
	if err := json.Unmarshal(output, &resp); err != nil {
		result.Error = &CLIError{
			Code:    "PARSE_ERROR",
			Message: "failed to parse JSON output: " + err.Error(),
			Details: map[string]interface{}{"raw": string(output)},
		}
		return result
	}

	result.OK = resp.OK
	result.Data = resp.Data
	result.Error = resp.Error
	result.Warnings = resp.Warnings
	return result
}

// MustSucceed fails the test if the command did not succeed.
func (r *CLIResult) MustSucceed(t *testing.T) *CLIResult {
	t.Helper()
	if !r.OK {
		errMsg := "unknown error"
		if r.Error != nil {
			errMsg = r.Error.Code + ": " + r.Error.Message
		}
		t.Fatalf("expected command to succeed, got error: %s\nRaw output: %s", errMsg, r.RawJSON)
	}
	return r
}

// MustFail fails the test unless the command failed with expectedCode.
func (r *CLIResult) MustFail(t *testing.T, expectedCode string) *CLIResult {
	t.Helper()
	if r.OK {
		t.Fatalf("expected command to fail with code %s, but it succeeded\nRaw output: %s", expectedCode, r.RawJSON)
	}
	if r.Error == nil || r.Error.Code != expectedCode {
		t.Fatalf("expected error code %s, got %+v\nRaw output: %s", expectedCode, r.Error, r.RawJSON)
	}
	if r.ExitCode == 0 {
		t.Fatalf("expected non-zero exit code for a failed command")
	}
	return r
}

// DataInt extracts a number from the Data field.
func (r *CLIResult) DataInt(key string) int {
	if r.Data == nil {
		return 0
	}
	if n, ok := r.Data[key].(float64); ok {
		return int(n)
	}
	return 0
}

// DataString extracts a string from the Data field.
func (r *CLIResult) DataString(key string) string {
	if r.Data == nil {
		return ""
	}
	if s, ok := r.Data[key].(string); ok {
		return s
	}
	return ""
}

// DataList extracts a list from the Data field.
func (r *CLIResult) DataList(key string) []interface{} {
	if r.Data == nil {
		return nil
	}
	if list, ok := r.Data[key].([]interface{}); ok {
		return list
	}
	return nil
}
