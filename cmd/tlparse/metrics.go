// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runMetrics holds the process-wide Prometheus counters for one tlparse
// invocation: the error-taxonomy counters from ingest.Stats, plus a
// histogram of parse duration. Registered lazily so a run that never
// passes --metrics-addr pays no cost.
type runMetrics struct {
	once sync.Once

	recordsOK        prometheus.Counter
	recordsOtherRank prometheus.Counter
	failGlog         prometheus.Counter
	failJSON         prometheus.Counter
	failPayloadMD5   prometheus.Counter
	failGuardsJSON   prometheus.Counter
	failParser       prometheus.Counter
	unknownFields    prometheus.Counter
	parseDuration    prometheus.Histogram
}

var tlMetrics runMetrics

func (m *runMetrics) init() {
	m.once.Do(func() {
		m.recordsOK = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_records_ok_total", Help: "Records that passed every decode and gate step"})
		m.recordsOtherRank = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_records_other_rank_total", Help: "Records dropped by the rank gate"})
		m.failGlog = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_fail_glog_total", Help: "Lines that did not match the glog prefix"})
		m.failJSON = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_fail_json_total", Help: "Envelopes that failed to decode as JSON"})
		m.failPayloadMD5 = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_fail_payload_md5_total", Help: "Payloads whose MD5 digest did not match has_payload"})
		m.failGuardsJSON = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_fail_dynamo_guards_json_total", Help: "dynamo_guards payloads that failed to parse"})
		m.failParser = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_fail_parser_total", Help: "Analyzer Parse calls that returned an error"})
		m.unknownFields = prometheus.NewCounter(prometheus.CounterOpts{Name: "tlparse_unknown_fields_total", Help: "Unknown envelope fields encountered"})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "tlparse_parse_duration_seconds", Help: "Wall time of one Parse call", Buckets: prometheus.DefBuckets})

		prometheus.MustRegister(
			m.recordsOK, m.recordsOtherRank, m.failGlog, m.failJSON,
			m.failPayloadMD5, m.failGuardsJSON, m.failParser, m.unknownFields,
			m.parseDuration,
		)
	})
}

// serveMetrics starts a background HTTP server exposing /metrics at
// addr, returning once the listener goroutine has been started. Errors
// after startup are logged, not fatal, since metrics are diagnostic and
// should never take down a parse run.
func serveMetrics(addr string, logger *slog.Logger) {
	tlMetrics.init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

// observeStats copies the final ingest.Stats counters into the
// Prometheus series registered by init, so a scrape after the run
// reflects the same taxonomy as the human-readable summary line.
func observeStats(ok, otherRank, failGlog, failJSON, failPayloadMD5, failGuardsJSON, failParser, unknown uint64) {
	tlMetrics.recordsOK.Add(float64(ok))
	tlMetrics.recordsOtherRank.Add(float64(otherRank))
	tlMetrics.failGlog.Add(float64(failGlog))
	tlMetrics.failJSON.Add(float64(failJSON))
	tlMetrics.failPayloadMD5.Add(float64(failPayloadMD5))
	tlMetrics.failGuardsJSON.Add(float64(failGuardsJSON))
	tlMetrics.failParser.Add(float64(failParser))
	tlMetrics.unknownFields.Add(float64(unknown))
}
