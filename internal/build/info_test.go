package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionFromFile(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.Equal(t, strings.TrimSpace(string(rawVersion)), Version)
}

func TestUserAgent(t *testing.T) {
	previous := Commit
	t.Cleanup(func() { Commit = previous })

	Commit = ""
	assert.Equal(t, "novelstudio/"+Version, UserAgent())

	Commit = "0123456789abcdef"
	assert.Equal(t, "novelstudio/"+Version+" (0123456)", UserAgent())
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.2.3", GoVersion: "go1.24.0", Platform: "linux/amd64", Uptime: "1s"}

	out := info.String()
	assert.True(t, strings.HasPrefix(out, "novelstudio v1.2.3\n"))
	assert.NotContains(t, out, "Commit:")
	assert.Contains(t, out, "Platform: linux/amd64")

	info.Commit = "abc"
	assert.Contains(t, info.String(), "Commit: abc")
}
