package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/rosterplan/core/monitoring"
)

type recordMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) CapturePanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func useMonitor(t *testing.T) *recordMonitor {
	t.Helper()
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })
	return mon
}

func TestPublish_ExhaustedRetriesAreReported(t *testing.T) {
	netErr := errors.New("broker unreachable")
	mc := &mockClient{publishErrs: []error{netErr, netErr}}
	useMockClient(t, mc)
	mon := useMonitor(t)

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	err = cli.Publish("rosterplan/roster/published", []byte("{}"))
	assert.ErrorIs(t, err, netErr)
	assert.Len(t, mc.published, 2)
	require.Len(t, mon.errs, 1)
	assert.Equal(t, map[string]string{"module": "mqtt", "topic": "rosterplan/roster/published"}, mon.tags[0])
}

func TestPublish_RetrySuccessIsNotReported(t *testing.T) {
	mc := &mockClient{publishErrs: []error{errors.New("transient")}}
	useMockClient(t, mc)
	mon := useMonitor(t)

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)

	require.NoError(t, cli.Publish("rosterplan/roster/published", []byte("{}")))
	assert.Len(t, mc.published, 2)
	assert.Empty(t, mon.errs)
}
