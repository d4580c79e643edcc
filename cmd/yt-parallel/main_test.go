package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phiroict/yt-parallel/internal/domain"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"explicit code", withCode(exitInput, errors.New("bad config")), exitInput},
		{"missing tool", fmt.Errorf("lookup: %w", domain.ErrToolUnavailable), exitToolAbsent},
		{"unreadable list", fmt.Errorf("%w: open videolist.txt", domain.ErrConfiguration), exitInput},
		{"aborted batch", fmt.Errorf("%w: exec format error", domain.ErrSpawn), exitProcessing},
		{"anything else", errors.New("boom"), exitProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithCodeNil(t *testing.T) {
	if err := withCode(exitInput, nil); err != nil {
		t.Errorf("withCode(nil) = %v, want nil", err)
	}
}

func TestRootFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"location-video-list", "video-download-tool", "target", "workers", "work-dir", "abort-on-spawn-failure"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	for short, long := range map[string]string{"l": "location-video-list", "v": "video-download-tool", "t": "target", "w": "workers"} {
		f := cmd.Flags().ShorthandLookup(short)
		if f == nil || f.Name != long {
			t.Errorf("-%s should map to --%s", short, long)
		}
	}
	if f := cmd.PersistentFlags().ShorthandLookup("d"); f == nil || f.Name != "debug-level" {
		t.Error("-d should map to --debug-level")
	}
}
