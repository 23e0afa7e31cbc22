//go:build unit || !integration

package version

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	oldVersion, oldDate := GITVERSION, BUILDDATE
	t.Cleanup(func() { GITVERSION, BUILDDATE = oldVersion, oldDate })

	GITVERSION, BUILDDATE = "v1.4.2", "2024-03-05T14:07:00Z"
	info := Get()
	assert.Equal(t, "v1.4.2", info.GitVersion)
	assert.Equal(t, "1", info.Major)
	assert.Equal(t, "4", info.Minor)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC), info.BuildDate)
	assert.Equal(t, runtime.GOOS, info.GOOS)

	GITVERSION, BUILDDATE = "not-a-version", "yesterday"
	info = Get()
	assert.Equal(t, "not-a-version", info.GitVersion)
	assert.Empty(t, info.Major)
	assert.True(t, info.BuildDate.IsZero())
}
