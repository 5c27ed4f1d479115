package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistererRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)
	require.NotNil(t, m)

	m.RegistryApps.Set(3)
	m.BusRequestsTotal.WithLabelValues("app-a", "ping").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestUptimeIncreases(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	time.Sleep(time.Millisecond)
	assert.Greater(t, m.Uptime(), time.Duration(0))
}
