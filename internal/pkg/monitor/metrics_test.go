package monitor

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSystemSnapshot(t *testing.T) {
	snap := GetSystemSnapshot(context.Background(), t.TempDir())

	assert.Equal(t, runtime.GOOS, snap.OS)
	assert.Equal(t, runtime.NumCPU(), snap.CPUCores)
	assert.Positive(t, snap.Goroutines)
	assert.NotEmpty(t, snap.Uptime)
	assert.GreaterOrEqual(t, snap.DiskUsage, 0.0)
}
