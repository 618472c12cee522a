// Package metrics collects and exposes Prometheus metrics for Vitrine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitrinedev/vitrine/internal/events"
)

// Collector holds all Vitrine-specific Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	mu        sync.Mutex
	startedAt time.Time

	WorkloadStartTotal   prometheus.Counter
	WorkloadExitTotal    prometheus.Counter
	WorkloadRestartTotal prometheus.Counter

	BrowserLaunchTotal *prometheus.CounterVec
	BrowserCloseTotal  *prometheus.CounterVec

	ScreenConnected prometheus.Gauge
	PowerState      prometheus.Gauge

	SupervisorUptime prometheus.GaugeFunc
	ShutdownTotal    *prometheus.CounterVec
	BuildInfo        *prometheus.GaugeVec
}

// New creates and registers all Vitrine metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		WorkloadStartTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vitrine_workload_start_total",
				Help: "Total number of workload process starts.",
			},
		),

		WorkloadExitTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vitrine_workload_exit_total",
				Help: "Total number of workload process exits.",
			},
		),

		WorkloadRestartTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vitrine_workload_restart_total",
				Help: "Total number of workload auto-restarts.",
			},
		),

		BrowserLaunchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitrine_browser_launch_total",
				Help: "Total number of kiosk browser launch attempts.",
			},
			[]string{"result"},
		),

		BrowserCloseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitrine_browser_close_total",
				Help: "Total number of kiosk browser closes.",
			},
			[]string{"cause"},
		),

		ScreenConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vitrine_secondary_screen_connected",
				Help: "Whether a secondary screen is currently driving the kiosk browser.",
			},
		),

		PowerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vitrine_power_state",
				Help: "Current power state (0=unknown, 1=ac, 2=battery).",
			},
		),

		ShutdownTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitrine_shutdown_total",
				Help: "Shutdown sequences started, by reason.",
			},
			[]string{"reason"},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitrine_info",
				Help: "Build information about Vitrine.",
			},
			[]string{"version", "go_version"},
		),
	}

	// The uptime gauge reads the start time recorded when the supervisor
	// reports itself running; 0 until then.
	c.SupervisorUptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "vitrine_supervisor_uptime_seconds",
			Help: "Uptime of the Vitrine supervisor in seconds.",
		},
		func() float64 {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.startedAt.IsZero() {
				return 0
			}
			return time.Since(c.startedAt).Seconds()
		},
	)

	reg.MustRegister(
		c.WorkloadStartTotal,
		c.WorkloadExitTotal,
		c.WorkloadRestartTotal,
		c.BrowserLaunchTotal,
		c.BrowserCloseTotal,
		c.ScreenConnected,
		c.PowerState,
		c.SupervisorUptime,
		c.ShutdownTotal,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// Observe subscribes the collector to supervisor lifecycle events so the
// counters track kiosk activity without the supervisor knowing about
// Prometheus.
func (c *Collector) Observe(bus *events.Bus) {
	bus.Subscribe(events.WorkloadStarted, func(events.Event) {
		c.WorkloadStartTotal.Inc()
	})
	bus.Subscribe(events.WorkloadExited, func(events.Event) {
		c.WorkloadExitTotal.Inc()
	})
	bus.Subscribe(events.WorkloadRestarting, func(events.Event) {
		c.WorkloadRestartTotal.Inc()
	})

	bus.Subscribe(events.BrowserLaunched, func(events.Event) {
		c.BrowserLaunchTotal.WithLabelValues("ok").Inc()
		c.ScreenConnected.Set(1)
	})
	bus.Subscribe(events.BrowserLaunchFailed, func(events.Event) {
		c.BrowserLaunchTotal.WithLabelValues("error").Inc()
	})
	bus.Subscribe(events.BrowserClosed, func(events.Event) {
		c.BrowserCloseTotal.WithLabelValues("supervisor").Inc()
		c.ScreenConnected.Set(0)
	})
	bus.Subscribe(events.BrowserVanished, func(events.Event) {
		c.BrowserCloseTotal.WithLabelValues("external").Inc()
		c.ScreenConnected.Set(0)
	})

	bus.Subscribe(events.PowerSampled, func(e events.Event) {
		switch e.Data["status"] {
		case "AC":
			c.PowerState.Set(1)
		case "BATTERY":
			c.PowerState.Set(2)
		default:
			c.PowerState.Set(0)
		}
	})
	bus.Subscribe(events.PowerDisconnected, func(events.Event) {
		c.PowerState.Set(2)
	})

	bus.Subscribe(events.SupervisorRunning, func(events.Event) {
		c.mu.Lock()
		c.startedAt = time.Now()
		c.mu.Unlock()
	})
	bus.Subscribe(events.SupervisorStopping, func(e events.Event) {
		c.ShutdownTotal.WithLabelValues(e.Data["reason"]).Inc()
	})
}
