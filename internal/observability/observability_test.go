package observability

import (
	"bytes"
	"log/slog"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type capturingMetrics struct {
	counters map[string]float64
	gauges   map[string]float64
}

func (m *capturingMetrics) IncCounter(name string, value float64, _ map[string]string) {
	if m.counters == nil {
		m.counters = make(map[string]float64)
	}
	m.counters[name] += value
}

func (m *capturingMetrics) SetGauge(name string, value float64, _ map[string]string) {
	if m.gauges == nil {
		m.gauges = make(map[string]float64)
	}
	m.gauges[name] = value
}

func TestSetLoggerNilRestoresNoop(t *testing.T) {
	SetLogger(NewSlogLogger(nil))
	require.NotNil(t, Log())

	SetLogger(nil)
	// The noop logger must not panic on any level.
	Log().Debug("debug")
	Log().Info("info")
	Log().Error("error")
}

func TestSlogLoggerRendersFields(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlogLogger(slog.New(handler))

	logger.Info("order placed", F("order_id", 42), F("cafeteria", "riverside"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "order placed", line["msg"])
	require.EqualValues(t, 42, line["order_id"])
	require.Equal(t, "riverside", line["cafeteria"])
}

func TestSetMetricsSwapsCollector(t *testing.T) {
	capture := &capturingMetrics{}
	SetMetrics(capture)
	t.Cleanup(func() { SetMetrics(nil) })

	Telemetry().IncCounter("orders.placed", 1, map[string]string{"cafeteria": "riverside"})
	Telemetry().IncCounter("orders.placed", 1, nil)
	Telemetry().SetGauge("cafeteria.revenue", 5.6, nil)

	require.EqualValues(t, 2, capture.counters["orders.placed"])
	require.EqualValues(t, 5.6, capture.gauges["cafeteria.revenue"])
}

func TestNoopMetricsByDefault(t *testing.T) {
	SetMetrics(nil)
	require.NotPanics(t, func() {
		Telemetry().IncCounter("anything", 1, nil)
		Telemetry().SetGauge("anything", 1, nil)
	})
}

func TestOTelMetricsCachesInstruments(t *testing.T) {
	m := NewOTelMetrics("test")
	m.IncCounter("orders.placed", 1, map[string]string{"cafeteria": "riverside"})
	m.IncCounter("orders.placed", 1, nil)
	m.SetGauge("cafeteria.revenue", 5.6, nil)

	require.Len(t, m.counters, 1)
	require.Len(t, m.gauges, 1)
}
