package connmgr

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "fxvfs/connmgr"

// managerMetrics counts the session lifecycle events of a manager and
// exposes them, with the slot gauges, as OpenTelemetry observables.
type managerMetrics struct {
	opened        atomic.Int64
	closed        atomic.Int64
	reaped        atomic.Int64
	drainFailures atomic.Int64

	registration metric.Registration
}

func (m *Manager) registerMeterCallback() (err error) {
	meter := otel.GetMeterProvider().Meter(meterName)
	var opened, closed, reaped, drainFailures metric.Int64ObservableCounter
	if opened, err = meter.Int64ObservableCounter(
		"connections_opened",
		metric.WithDescription("Connections opened"),
	); err != nil {
		return
	}
	if closed, err = meter.Int64ObservableCounter(
		"connections_closed",
		metric.WithDescription("Connections closed, for any reason"),
	); err != nil {
		return
	}
	if reaped, err = meter.Int64ObservableCounter(
		"connections_reaped",
		metric.WithDescription("Connections closed after staying idle too long"),
	); err != nil {
		return
	}
	if drainFailures, err = meter.Int64ObservableCounter(
		"drain_failures",
		metric.WithDescription("Connections closed because their pending response could not be drained"),
	); err != nil {
		return
	}
	var openGauge, idleGauge, slotsGauge metric.Int64ObservableGauge
	if openGauge, err = meter.Int64ObservableGauge("connections_open"); err != nil {
		return
	}
	if idleGauge, err = meter.Int64ObservableGauge("connections_idle"); err != nil {
		return
	}
	if slotsGauge, err = meter.Int64ObservableGauge("slots"); err != nil {
		return
	}

	// setup observer
	m.metrics.registration, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) (err error) {
			stats := m.Stats()
			o.ObserveInt64(opened, m.metrics.opened.Load())
			o.ObserveInt64(closed, m.metrics.closed.Load())
			o.ObserveInt64(reaped, m.metrics.reaped.Load())
			o.ObserveInt64(drainFailures, m.metrics.drainFailures.Load())
			o.ObserveInt64(openGauge, int64(stats.Open))
			o.ObserveInt64(idleGauge, int64(stats.Idle))
			o.ObserveInt64(slotsGauge, int64(stats.Slots))
			return
		},
		opened, closed, reaped, drainFailures, openGauge, idleGauge, slotsGauge,
	)
	return
}

func (m *Manager) unregisterMeterCallback() (err error) {
	if m.metrics.registration != nil {
		err = m.metrics.registration.Unregister()
		m.metrics.registration = nil
	}
	return
}
