package chromeraster

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	if got := ResolveChromePath("/custom/path/to/chrome"); got != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to be returned, got %s", got)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if got := ResolveChromePath(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", got)
	}
	if got := ResolveChromePath("/explicit/chrome"); got != "/explicit/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", got)
	}
}

func TestSystemCandidates(t *testing.T) {
	linux := systemCandidates("linux")
	if len(linux) == 0 || linux[0] != "chromium" {
		t.Errorf("linux candidates should start with chromium, got %v", linux)
	}

	t.Setenv("PROGRAMFILES", `C:\Program Files`)
	t.Setenv("PROGRAMFILES(X86)", "")
	t.Setenv("LOCALAPPDATA", "")
	windows := systemCandidates("windows")
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows candidates, got %v", windows)
	}
	if !strings.Contains(windows[0], "Chromium") {
		t.Errorf("chromium should be tried first, got %v", windows)
	}

	if got := systemCandidates("plan9"); got != nil {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestResolveExecutable(t *testing.T) {
	if got := resolveExecutable("definitely-not-a-real-command-xyz123"); got != "" {
		t.Errorf("expected empty for unknown command, got %s", got)
	}

	var full string
	switch runtime.GOOS {
	case "windows":
		full = os.Getenv("COMSPEC")
	default:
		full = "/bin/sh"
	}
	if full == "" {
		t.Skip("no known executable path for this platform")
	}
	if got := resolveExecutable(full); got != full {
		t.Errorf("expected %s, got %s", full, got)
	}
	if got := resolveExecutable("/definitely/not/a/real/path/chrome"); got != "" {
		t.Errorf("expected empty for missing path, got %s", got)
	}
}
