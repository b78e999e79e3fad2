package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrEthical07/goGate/middleware"
	"github.com/MrEthical07/goGate/verifier"
)

// scriptedCodes returns a reader that hands out codes in order, then io.EOF.
func scriptedCodes(codes ...string) func(string) (string, error) {
	return func(string) (string, error) {
		if len(codes) == 0 {
			return "", io.EOF
		}
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	return writeTestConfigWithTimeout(t, "5s")
}

func writeTestConfigWithTimeout(t *testing.T, inactivity string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gogate.yaml")
	body := "storage:\n" +
		"  backend: sqlite\n" +
		"  sqlite_path: " + filepath.ToSlash(filepath.Join(dir, "gate.db")) + "\n" +
		"device:\n" +
		"  cli: test-device\n" +
		"audit:\n" +
		"  enabled: false\n" +
		"gate:\n" +
		"  inactivity_timeout: " + inactivity + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func run(t *testing.T, readCode func(string) (string, error), args ...string) (string, error) {
	t.Helper()
	if readCode == nil {
		readCode = scriptedCodes()
	}
	cmd := newRootCommand(&app{readCode: readCode})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncode(t *testing.T) {
	out, err := run(t, nil, "encode", "KaceDEV")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	want, _ := verifier.Obfuscate("KaceDEV")
	if strings.TrimSpace(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestEncodeRejectsNonLatin1(t *testing.T) {
	if _, err := run(t, nil, "encode", "mã🙂"); err == nil {
		t.Fatal("expected error for characters outside Latin-1")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gogate.yaml")
	out, err := run(t, nil, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("expected path in output, got %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := run(t, nil, "config", "init", "--path", path); err == nil {
		t.Fatal("expected refusal without --force")
	}
	if _, err := run(t, nil, "config", "init", "--path", path, "--force"); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
}

func TestUnlockLockoutOverrideAndReset(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, scriptedCodes("", "nope", "wrong", "still wrong"), "--config", cfg, "unlock")
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if !strings.Contains(out, "Please enter the code.") {
		t.Fatalf("expected empty-code message, got:\n%s", out)
	}
	if strings.Count(out, "Access Denied: Invalid Security Code.") != 2 {
		t.Fatalf("expected two denials, got:\n%s", out)
	}
	if !strings.Contains(out, "SECURITY LOCKOUT: Too many failed attempts.") {
		t.Fatalf("expected lockout, got:\n%s", out)
	}

	out, err = run(t, nil, "--config", cfg, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "LOCKED") || !strings.Contains(out, "Attempts: 3/3") {
		t.Fatalf("expected locked status, got:\n%s", out)
	}

	// A wrong VIP key during the lockout is not counted.
	out, err = run(t, scriptedCodes("bad key"), "--config", cfg, "unlock")
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if !strings.Contains(out, "Invalid VIP Key.") {
		t.Fatalf("expected override denial, got:\n%s", out)
	}

	out, err = run(t, scriptedCodes(" VIP100 "), "--config", cfg, "unlock")
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if !strings.Contains(out, "Access granted.") {
		t.Fatalf("expected override to unlock, got:\n%s", out)
	}

	out, err = run(t, nil, "--config", cfg, "status", "--json")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var st middleware.StateResponse
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !st.IsUnlocked {
		t.Fatalf("expected unlocked state, got %+v", st)
	}

	out, err = run(t, nil, "--config", cfg, "unlock")
	if err != nil || !strings.Contains(out, "Device already unlocked.") {
		t.Fatalf("expected already-unlocked notice, got %q, %v", out, err)
	}

	out, err = run(t, nil, "--config", cfg, "reset")
	if err != nil || !strings.Contains(out, "Gate state cleared.") {
		t.Fatalf("reset failed: %q, %v", out, err)
	}
	out, err = run(t, nil, "--config", cfg, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "AWAITING_INPUT") || !strings.Contains(out, "Prompts:  0/10 used") {
		t.Fatalf("expected fresh state after reset, got:\n%s", out)
	}
}

func TestUnlockDeviceFlagIsolatesState(t *testing.T) {
	cfg := writeTestConfig(t)

	if _, err := run(t, scriptedCodes("x", "y", "z"), "--config", cfg, "unlock"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	out, err := run(t, nil, "--config", cfg, "--device", "other", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "AWAITING_INPUT") {
		t.Fatalf("expected other device untouched, got:\n%s", out)
	}
}

func TestUnlockRejectsUnknownFeature(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, nil, "--config", cfg, "unlock", "--feature", "ADMIN"); err == nil {
		t.Fatal("expected unknown feature error")
	}
}

func TestUnlockInputErrorStops(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, scriptedCodes(), "--config", cfg, "unlock"); err == nil {
		t.Fatal("expected read error to end unlock")
	}
}

func TestUnlockGivesUpWhenIdle(t *testing.T) {
	cfg := writeTestConfigWithTimeout(t, "50ms")

	release := make(chan struct{})
	defer close(release)
	blocked := func(string) (string, error) {
		<-release
		return "", io.EOF
	}

	_, err := run(t, blocked, "--config", cfg, "unlock")
	if !errors.Is(err, errInactive) {
		t.Fatalf("expected errInactive, got %v", err)
	}

	out, err := run(t, nil, "--config", cfg, "status")
	if err != nil || !strings.Contains(out, "Attempts: 0/3") {
		t.Fatalf("idle prompt must not count an attempt, got %q, %v", out, err)
	}
}
