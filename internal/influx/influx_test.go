package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/internal/config"
)

func unreachableConfig(t *testing.T) config.InfluxConfig {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	host, port, _ := strings.Cut(strings.TrimPrefix(server.URL, "http://"), ":")
	return config.InfluxConfig{
		Enabled:  true,
		Host:     host,
		Port:     port,
		Protocol: "http",
		Org:      "hexfront",
		Bucket:   "matches",
	}
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	err := m.WritePoint(influxdb2_write.NewPointWithMeasurement("status"))
	assert.Error(t, err)
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "telemetry.gz")
	m := NewManager(unreachableConfig(t), zerolog.Nop(), backup)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	p := influxdb2_write.NewPoint("status",
		map[string]string{"side": "blue"},
		map[string]interface{}{"alive_blue": 24},
		time.Unix(100, 0))
	require.NoError(t, m.WritePoint(p))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)

	scanner := bufio.NewScanner(zr)
	require.True(t, scanner.Scan())
	line := scanner.Text()
	assert.True(t, strings.HasPrefix(line, "status,side=blue "), line)
	assert.Contains(t, line, "alive_blue=24i")
}

func TestClose_Idempotent(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
