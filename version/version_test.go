package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"dev build", Info{Version: "dev", CommitHash: "dev", BuildTime: "unknown"}, "pystub dev (commit dev, built unknown)"},
		{"release", Info{Version: "v1.2.0", CommitHash: "0123456789abcdef", BuildTime: "2026-01-02"}, "pystub 1.2.0 (commit 0123456, built 2026-01-02)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestSemver(t *testing.T) {
	_, ok := Info{Version: "dev"}.Semver()
	assert.False(t, ok)

	v, ok := Info{Version: "0.3.1"}.Semver()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v.Minor())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
