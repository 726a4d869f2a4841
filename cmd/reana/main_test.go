package main

import (
	"fmt"
	"testing"

	"github.com/matzehuels/reana/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", fmt.Errorf("boom"), 1},
		{"coded", errors.New(errors.ErrCodeInvalidInput, "bad"), 1},
		{"cycle", fmt.Errorf("load: %w", &errors.CyclicDependencyError{Path: []string{"A", "B", "A"}}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
