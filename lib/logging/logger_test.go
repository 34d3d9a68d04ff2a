package logging

import (
	"testing"
)

// Every level the server configuration accepts must parse without panicking.
func TestParseLogLevelAcceptsAllConfiguredLevels(t *testing.T) {
	cases := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DEBUG},
		{"info", INFO},
		{"warning", WARNING},
		{"warn", WARNING},
		{"error", ERROR},
		{"critical", CRITICAL},
		{"INFO", INFO},
		{"Critical", CRITICAL},
	}

	for _, c := range cases {
		got := ParseLogLevel(c.input)
		if got != c.want {
			t.Errorf("ParseLogLevel(%q) = %d, expected %d", c.input, got, c.want)
		}
	}
}

func TestParseLogLevelPanicsOnUnknownLevel(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected ParseLogLevel to panic for an unknown level")
		}
	}()
	ParseLogLevel("verbose")
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	a := GetLogger("logging-test")
	b := GetLogger("logging-test")
	if a != b {
		t.Errorf("Expected GetLogger to return the same logger for the same name")
	}
}
