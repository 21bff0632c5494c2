package main

import (
	"slices"
	"testing"
)

func TestExpandShortFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"java spelling", []string{"run", "-cp", "build", "app.Main"}, []string{"run", "--classpath", "build", "app.Main"}},
		{"after separator", []string{"run", "--", "-cp"}, []string{"run", "--", "-cp"}},
		{"long flag", []string{"run", "--classpath=a", "app.Main"}, []string{"run", "--classpath=a", "app.Main"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandShortFlags(tt.args); !slices.Equal(got, tt.want) {
				t.Errorf("expandShortFlags(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
