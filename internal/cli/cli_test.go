package cli

import (
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "pybale" {
		t.Errorf("root.Use = %q, want pybale", root.Use)
	}
	if !root.SilenceUsage {
		t.Error("root command should silence usage on errors")
	}

	want := []string{"bundle", "graph", "classify", "registry", "cache", "completion"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("root command missing subcommand %q (have %v)", name, got)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.SetLogLevel(log.DebugLevel)
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestJoinMax(t *testing.T) {
	tests := []struct {
		items []string
		n     int
		want  string
	}{
		{[]string{"a", "b"}, 3, "a, b"},
		{[]string{"a", "b", "c"}, 3, "a, b, c"},
		{[]string{"a", "b", "c", "d"}, 2, "a, b, … (2 more)"},
		{nil, 2, ""},
	}
	for _, tt := range tests {
		if got := joinMax(tt.items, tt.n); got != tt.want {
			t.Errorf("joinMax(%v, %d) = %q, want %q", tt.items, tt.n, got, tt.want)
		}
	}
}
