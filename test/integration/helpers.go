//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Token        string
	PreviewToken string
	Region       string
	BaseFolder   string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Token:        os.Getenv("STORYBLOK_TOKEN"),
		PreviewToken: os.Getenv("STORYBLOK_PREVIEW_TOKEN"),
		Region:       os.Getenv("STORYBLOK_REGION"),
		BaseFolder:   os.Getenv("STORYBLOK_BASE_FOLDER"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("SBDOCS_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the sbdocs binary
func getBinaryPath() string {
	if path := os.Getenv("SBDOCS_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../sbdocs", "./sbdocs", "../sbdocs"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "sbdocs"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("STORYBLOK_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("sbdocs binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs sbdocs commands against the configured space.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

func (runner *CommandRunner) command(ctx context.Context, args ...string) *exec.Cmd {
	// An empty config file keeps the developer's ~/.sbdocs out of the test.
	configFile := runner.t.TempDir() + "/config.yml"

	args = append([]string{"--config", configFile}, args...)

	cmd := exec.CommandContext(ctx, runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "STORYBLOK_TOKEN="+runner.config.Token)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	return cmd
}

// Run executes a sbdocs command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := runner.command(context.Background(), args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Start runs a long-lived sbdocs command until the test ends.
func (runner *CommandRunner) Start(args ...string) {
	ctx, cancel := context.WithCancel(context.Background())

	cmd := runner.command(ctx, args...)
	if runner.config.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		cancel()
		runner.t.Fatalf("failed to start sbdocs: %v", err)
	}

	runner.t.Cleanup(func() {
		cancel()
		_ = cmd.Wait()
	})
}

// FreeAddr returns a local address nothing listens on.
func FreeAddr(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}

	addr := listener.Addr().String()
	_ = listener.Close()

	return addr
}

// WaitForCondition waits for a condition to be met with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var value interface{}
	if err := yaml.Unmarshal([]byte(output), &value); err != nil || value == nil {
		t.Errorf("Output is not valid YAML: %s", output)
	}
}
