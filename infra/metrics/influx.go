package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
	"github.com/kilianp07/rosterplan/infra/logger"
)

// InfluxSink writes planning runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlanRun writes one plan_run point.
func (s *InfluxSink) RecordPlanRun(ev coremetrics.PlanRunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, planRunPoint(ev))
}

// RecordIncumbent writes one plan_incumbent point.
func (s *InfluxSink) RecordIncumbent(ev coremetrics.IncumbentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_incumbent").
		AddTag("run_id", ev.RunID).
		AddField("objective", ev.Objective).
		AddField("elapsed_ms", ev.Elapsed.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func planRunPoint(ev coremetrics.PlanRunEvent) *write.Point {
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("status", ev.Status).
		AddTag("backend", ev.Backend).
		AddField("run_id", ev.RunID).
		AddField("objective", ev.Objective).
		AddField("sessions", ev.Sessions).
		AddField("doctors", ev.Doctors).
		AddField("assignments", ev.Assignments).
		AddField("unreachable", ev.Unreachable).
		AddField("nodes", ev.Nodes).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond)))
	if ev.HasBound {
		p = p.AddField("bound", round3(ev.Bound))
	}
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	return p.SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
