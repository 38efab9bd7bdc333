package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"BOT_TOKEN", "ADMIN_CHAT_ID", "TARGET_CHANNEL_ID",
		"PREDICTION_CHANNEL_ID", "PORT", "DAMEBOT_DATA_DIR", "DAMEBOT_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestInit(t *testing.T) {
	if rootCmd == nil || runCmd == nil || onboardCmd == nil || statusCmd == nil {
		t.Fatal("commands should be initialized")
	}

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"run", "onboard", "status"} {
		if !names[want] {
			t.Errorf("root command missing %q", want)
		}
	}
}

func TestRunOnboard(t *testing.T) {
	isolateEnv(t)

	output, err := captureStdout(t, func() error {
		return runOnboard(&cobra.Command{}, nil)
	})
	if err != nil {
		t.Fatalf("runOnboard error: %v", err)
	}

	home := os.Getenv("HOME")
	cfgPath := filepath.Join(home, ".damebot", "config.json")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
	dataDir := filepath.Join(home, ".damebot", "data")
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Error("data directory was not created")
	}
	if !strings.Contains(output, "Config:") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestRunOnboard_KeepsExistingConfig(t *testing.T) {
	isolateEnv(t)

	cfgDir := filepath.Join(os.Getenv("HOME"), ".damebot")
	os.MkdirAll(cfgDir, 0o755)
	os.WriteFile(filepath.Join(cfgDir, "config.json"),
		[]byte(`{"engine":{"pointsThreshold":77}}`), 0o644)

	_, err := captureStdout(t, func() error {
		return runOnboard(&cobra.Command{}, nil)
	})
	if err != nil {
		t.Fatalf("runOnboard error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfgDir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "77") {
		t.Errorf("existing threshold lost on onboard: %s", data)
	}
}

func TestRunStatus(t *testing.T) {
	isolateEnv(t)

	output, err := captureStdout(t, func() error {
		return runStatus(&cobra.Command{}, nil)
	})
	if err != nil {
		t.Fatalf("runStatus error: %v", err)
	}

	if !strings.Contains(output, "Source channel:") {
		t.Errorf("missing channel info in output: %s", output)
	}
	if !strings.Contains(output, "INTER active:") {
		t.Errorf("missing learner state in output: %s", output)
	}
	if !strings.Contains(output, "Bilan") {
		t.Errorf("missing stats summary in output: %s", output)
	}
}

func TestRunGateway_NoToken(t *testing.T) {
	isolateEnv(t)

	err := runGateway(&cobra.Command{}, nil)
	if err == nil {
		t.Fatal("expected an error without a telegram token")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error should mention the token: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"info", "debug"} {
		log, err := newLogger(level)
		if err != nil {
			t.Fatalf("newLogger(%q): %v", level, err)
		}
		if log == nil {
			t.Fatalf("newLogger(%q) returned nil", level)
		}
	}
}
