package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthServiceGetHealth(t *testing.T) {
	svc := NewHealthService("v1.2.3", "2026-01-15T00:00:00Z", nil)

	status := svc.GetHealth(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
	assert.NotEmpty(t, status.Uptime)
	assert.Equal(t, "2026-01-15T00:00:00Z", status.Runtime["build_time"])
}
