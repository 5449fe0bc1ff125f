package cli

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withBuildInfo replaces the embedded build info for one test.
func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = old })
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "true", versionCmd.Annotations[annotationNoServices])
}

func TestVersionCmd_ReportsBuild(t *testing.T) {
	originalVersion := version
	version = "1.4.0"
	defer func() { version = originalVersion }()
	withBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "3f9c2a7d1e5b8c4a6f0d2e1b7a9c3d5e8f1a2b4c"},
			{Key: "vcs.time", Value: "2026-10-19T08:30:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	out, err := executeCommand(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "coupon version 1.4.0")
	assert.Contains(t, out, "go:     go1.24.0")
	assert.Contains(t, out, "commit: 3f9c2a7d1e5b (modified)")
	assert.Contains(t, out, "built:  2026-10-19T08:30:00Z")
}

func TestVersionCmd_WithoutVCS(t *testing.T) {
	originalVersion := version
	version = "dev"
	defer func() { version = originalVersion }()
	withBuildInfo(t, &debug.BuildInfo{GoVersion: "go1.24.0"})

	out, err := executeCommand(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "coupon version dev")
	assert.Contains(t, out, "go:     go1.24.0")
	assert.NotContains(t, out, "commit:")
	assert.NotContains(t, out, "built:")
}

func TestVersionCmd_NoBuildInfo(t *testing.T) {
	withBuildInfo(t, nil)

	out, err := executeCommand(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "coupon version")
	assert.NotContains(t, out, "go:")
}

func TestNewBuildDetails_CleanTree(t *testing.T) {
	b := newBuildDetails(&debug.BuildInfo{
		GoVersion: "go1.24.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "false"},
		},
	})

	assert.Equal(t, buildDetails{goVersion: "go1.24.0", revision: "abc123"}, b)
}
