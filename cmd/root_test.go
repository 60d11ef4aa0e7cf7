package cmd

import (
	"errors"
	"fmt"
	"testing"

	"execauth/internal/execcred"
	"execauth/pkg/logging"
)

func TestGetExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"generic error", errors.New("boom"), ExitCodeError},
		{"configuration error", &execcred.ConfigurationError{Message: "bad"}, ExitCodeConfig},
		{"wrapped configuration error", fmt.Errorf("outer: %w", &execcred.ConfigurationError{Message: "bad"}), ExitCodeConfig},
		{"execution error", &execcred.ExecutionError{Kind: execcred.ExecTimeout}, ExitCodePlugin},
		{"validation error", &execcred.ValidationError{Reason: "version mismatch"}, ExitCodePlugin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getExitCode(tc.err); got != tc.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logging.LogLevel{
		"debug": logging.LevelDebug,
		"info":  logging.LevelInfo,
		"warn":  logging.LevelWarn,
		"error": logging.LevelError,
		"bogus": logging.LevelInfo,
		"":      logging.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
