package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	if Version == "dev" {
		return
	}
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	require.True(t, semver.MatchString(Version), "Version should follow semver format, got: %s", Version)
}

func TestString_IncludesBuildInfo(t *testing.T) {
	s := String()

	assert.True(t, strings.HasPrefix(s, "palicanon "+Version))
	assert.Contains(t, s, GetInfo().Commit)
	assert.Contains(t, s, runtime.Version())
}

func TestGetInfo_JSON(t *testing.T) {
	// Given: build info
	info := GetInfo()

	// When: encoding to JSON
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: the platform fields are present
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, runtime.GOOS, decoded["os"])
	assert.Equal(t, runtime.GOARCH, decoded["arch"])
	assert.Equal(t, Short(), decoded["version"])
}

func TestFillFromVCS(t *testing.T) {
	tests := []struct {
		name       string
		start      BuildInfo
		wantCommit string
		wantDate   string
	}{
		{
			name:       "unset values take the vcs stamp",
			start:      BuildInfo{Commit: "unknown", Date: "unknown"},
			wantCommit: "abc123",
			wantDate:   "2025-01-15T10:30:00Z",
		},
		{
			name:       "ldflags win",
			start:      BuildInfo{Commit: "release", Date: "2024-12-01"},
			wantCommit: "release",
			wantDate:   "2024-12-01",
		},
	}
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "vcs.time", Value: "2025-01-15T10:30:00Z"},
		{Key: "GOOS", Value: "linux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.start
			fillFromVCS(&info, settings)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantDate, info.Date)
		})
	}
}
