// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Thermoquad/turbostat/pkg/mjlink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "turbostat"

// Recorder publishes controller readings as Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	up              *prometheus.GaugeVec
	status          *prometheus.GaugeVec
	parameter       *prometheus.GaugeVec
	modelInfo       *prometheus.GaugeVec
	parameterErrors *prometheus.CounterVec
	pollDuration    prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "1 if the station answered its last status query",
		}, []string{"station"}),

		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status",
			Help:      "Operating status, 1 for the current code and 0 for the others",
		}, []string{"station", "code", "label"}),

		parameter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parameter_value",
			Help:      "Last scaled parameter reading",
		}, []string{"station", "code", "name", "unit"}),

		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_info",
			Help:      "Controller model identifier",
		}, []string{"station", "model"}),

		parameterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parameter_errors_total",
			Help:      "Parameter reads that failed",
		}, []string{"station", "code"}),

		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time to poll one station (status and sweep)",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	r.registry.MustRegister(
		r.up,
		r.status,
		r.parameter,
		r.modelInfo,
		r.parameterErrors,
		r.pollDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// TrackStatistics exposes a session's exchange counters.
func (r *Recorder) TrackStatistics(stats *mjlink.Statistics) {
	counter := func(name, help string, get func(mjlink.StatisticsSnapshot) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(get(stats.Snapshot()))
		})
	}

	r.registry.MustRegister(
		counter("frames_sent_total", "Command frames written to the link",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.FramesSent }),
		counter("replies_valid_total", "Replies decoded successfully",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.ValidReplies }),
		counter("checksum_errors_total", "Replies rejected for a checksum mismatch",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.ChecksumErrors }),
		counter("echo_errors_total", "Replies whose echoed prefix did not match the request",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.EchoErrors }),
		counter("decode_errors_total", "Replies that could not be decoded",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.DecodeErrors }),
		counter("timeouts_total", "Requests that got no reply in time",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.Timeouts }),
		counter("io_errors_total", "Link read/write failures",
			func(s mjlink.StatisticsSnapshot) uint64 { return s.IOErrors }),
	)
}

// ObserveStatus records the outcome of a status query.
func (r *Recorder) ObserveStatus(station int, s mjlink.Status, err error) {
	st := strconv.Itoa(station)
	if err != nil {
		r.up.WithLabelValues(st).Set(0)
		return
	}
	r.up.WithLabelValues(st).Set(1)
	for _, code := range mjlink.StatusCodes() {
		label, _ := mjlink.StatusLabel(code)
		v := 0.0
		if code == s.Code {
			v = 1
		}
		r.status.WithLabelValues(st, string(code), label).Set(v)
	}
}

// ObserveSweep records every reading of a sweep. Failed entries keep their
// previous value and bump the error counter.
func (r *Recorder) ObserveSweep(sw mjlink.Sweep) {
	st := strconv.Itoa(sw.Station)
	for _, res := range sw.Results {
		d := res.Descriptor
		if res.Err != nil {
			r.parameterErrors.WithLabelValues(st, d.Code).Inc()
			continue
		}
		if !d.Numeric() {
			if d.Code == "01" {
				r.modelInfo.DeletePartialMatch(prometheus.Labels{"station": st})
				r.modelInfo.WithLabelValues(st, res.Reading.Raw).Set(1)
			}
			continue
		}
		r.parameter.WithLabelValues(st, d.Code, d.Name, d.Unit).Set(res.Reading.Value)
	}
}

// ObservePoll records how long one station poll took.
func (r *Recorder) ObservePoll(d time.Duration) {
	r.pollDuration.Observe(d.Seconds())
}
