//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// influxInspector reads back what the planner's influx sink stored.
type influxInspector struct {
	client influxdb2.Client
	org    string
	bucket string
}

func newInfluxInspector(url, org, bucket, token string) *influxInspector {
	return &influxInspector{client: influxdb2.NewClient(url, token), org: org, bucket: bucket}
}

// waitHealthy polls the health endpoint until the server passes or ctx ends.
func (i *influxInspector) waitHealthy(ctx context.Context) error {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		h, err := i.client.Health(ctx)
		if err == nil && h.Status == "pass" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("influx not healthy: %w", ctx.Err())
		case <-tick.C:
		}
	}
}

// runStatus returns the status tag of the plan_run point carrying runID.
func (i *influxInspector) runStatus(ctx context.Context, runID string) (string, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "plan_run" and r._field == "run_id" and r._value == %q)`,
		i.bucket, runID)
	res, err := i.client.QueryAPI(i.org).Query(ctx, flux)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Close() }()
	for res.Next() {
		if s, ok := res.Record().ValueByKey("status").(string); ok {
			return s, nil
		}
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no plan_run point for %s", runID)
}

// incumbents counts plan_incumbent objective points for runID.
func (i *influxInspector) incumbents(ctx context.Context, runID string) (int, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "plan_incumbent" and r.run_id == %q and r._field == "objective")`,
		i.bucket, runID)
	res, err := i.client.QueryAPI(i.org).Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer func() { _ = res.Close() }()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (i *influxInspector) close() { i.client.Close() }
