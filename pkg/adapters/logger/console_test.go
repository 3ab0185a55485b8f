package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/lottiemp4/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriters(ports.LevelInfo, &out, &errOut)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Warn("careful %d", 3)
	log.Error("broken %d", 4)

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug message written at info level: %q", out.String())
	}
	if out.String() != "shown 2\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "careful 3\nbroken 4\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriters(ports.LevelQuiet, &out, &errOut)
	log.Error("nothing")
	if out.Len()+errOut.Len() != 0 {
		t.Errorf("quiet logger wrote output")
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out, errOut bytes.Buffer
	root := NewWriters(ports.LevelDebug, &out, &errOut)
	root.WithComponent("encode").Debug("drained %d units in %d ms", 30, 4)

	if got := out.String(); got != "[encode] drained 30 units in 4 ms\n" {
		t.Errorf("output = %q", got)
	}
	if root.component != "" {
		t.Errorf("WithComponent modified the parent logger")
	}
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	log := NewWriters(ports.LevelDebug, &bytes.Buffer{}, &bytes.Buffer{})
	if log.color {
		t.Error("color must be off for non-terminal writers")
	}
}

func TestNoopLogger(t *testing.T) {
	var log ports.Logger = NewNoop()
	if log.WithComponent("x") != log {
		t.Error("WithComponent should return the same logger")
	}
	log.Error("ignored")
}
