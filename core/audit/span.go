// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"encoding/base64"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Span represents a unit of work in flight: an HTTP request served to a client
// or a catalog file being loaded.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Destination TrafficDestination
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Size        int // response or file size in bytes
	Error       error
}

// TrafficDestination describes what a span measures.
type TrafficDestination string

// Constants for traffic destinations.
const (
	ToClient  TrafficDestination = "client"
	ToCatalog TrafficDestination = "catalog"
)

// ServerTimingName returns the Server-Timing metric name of the span.
func (span Span) ServerTimingName() string {
	// base64 without trailing '=' matches the metric name syntax
	return string(span.Destination) + "$" + span.Method + "$" + base64.RawURLEncoding.EncodeToString([]byte(span.URL))
}

// Begin starts timing the span. When ctx carries a Server-Timing header
// collector the span is also reported there.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, string(span.Destination))
	if servertimingContext := servertiming.FromContext(ctx); servertimingContext != nil {
		span.metric = servertimingContext.NewMetric(span.ServerTimingName())
		span.metric.Extra = make(map[string]string)
		span.metric.Extra["start"] = strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64)
	}

	return ctx
}

// End stops timing the span. Calling End more than once has no effect.
func (span *Span) End() {
	if span.task != nil {
		span.duration = time.Since(span.start)
		span.task.End()

		if span.metric != nil {
			span.metric.Duration = span.duration
		}

		span.task = nil
	}
}

// Duration returns the measured duration, zero before End.
func (span Span) Duration() time.Duration {
	return span.duration
}

// Log writes the span to the global logger. Client traffic is logged at debug
// level, catalog loads at info level, and failed catalog loads at warn level.
func (span Span) Log() {
	var event *zerolog.Event

	switch {
	case span.Destination == ToCatalog && span.Error != nil:
		event = log.Warn()
	case span.Destination == ToCatalog:
		event = log.Info()
	default:
		event = log.Debug()
	}

	if span.Destination == ToClient {
		event.Str("sys", "http")
		event.Int("status_code", span.StatusCode)
	} else {
		event.Str("sys", string(span.Destination))
	}

	event.Str("method", span.Method)
	event.Str("url", span.URL)
	event.Str("len", humanizeSize(span.Size))
	event.Dur("dur", span.duration)
	event.Str("destination", string(span.Destination))

	if span.RequestID != "" {
		event.Str("request_id", span.RequestID)
	}

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
	bytesInGB = bytesInMB * bytesInKB
)

func humanizeSize(x int) string {
	if x < bytesInKB {
		return strconv.Itoa(x)
	}

	if x < bytesInMB {
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	}

	if x < bytesInGB {
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}

	return fmt.Sprintf("%.2fG", float64(x)/bytesInGB)
}
