// Package app assembles a planning service from the configuration: the
// planner, its run history, metrics sinks, the event bus and the optional
// MQTT roster announcements.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/rosterplan/api"
	"github.com/kilianp07/rosterplan/api/plan"
	"github.com/kilianp07/rosterplan/api/runs"
	"github.com/kilianp07/rosterplan/config"
	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/core/runlog"
	"github.com/kilianp07/rosterplan/infra/logger"
	"github.com/kilianp07/rosterplan/infra/metrics"
	"github.com/kilianp07/rosterplan/infra/mqtt"
	"github.com/kilianp07/rosterplan/internal/eventbus"
)

const (
	// drainTimeout bounds how long Close waits for bus subscribers.
	drainTimeout = 5 * time.Second
	busBuffer    = 64
)

// Option customises New.
type Option func(*Service)

// WithPublisher sends roster announcements through pub instead of a
// broker connection built from the MQTT configuration.
func WithPublisher(pub mqtt.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

// WithLogStore replaces the run history configured in cfg.RunLog.
func WithLogStore(store runlog.LogStore) Option {
	return func(s *Service) { s.Store = store }
}

// Service orchestrates a planner and its observers.
type Service struct {
	Planner *planner.Planner
	Store   runlog.LogStore

	cfg    *config.Config
	bus    *eventbus.Bus
	sink   coremetrics.MetricsSink
	pub    mqtt.Publisher
	client *mqtt.PahoClient
	log    logger.Logger

	cancel    context.CancelFunc
	done      []<-chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{cfg: cfg, bus: eventbus.New(eventbus.WithBuffer(busBuffer)), log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink

	p, err := planner.New(cfg.Planner, logger.New("planner"), sink, s.bus)
	if err != nil {
		return nil, err
	}
	s.Planner = p

	if s.Store == nil {
		if s.Store, err = runlog.Open(cfg.RunLog); err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
	}
	p.SetLogStore(s.Store)

	if s.pub == nil && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = s.Store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.client, s.pub = client, client
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, sink))
	if s.pub != nil {
		rp := mqtt.NewRosterPublisher(s.pub, cfg.MQTT, logger.New("mqtt"))
		s.done = append(s.done, rp.Start(ctx, s.bus))
		s.log.Infof("announcing rosters on %s", rp.Topic())
	}
	return s, nil
}

// Plan runs the planner on snap.
func (s *Service) Plan(ctx context.Context, snap *model.Snapshot) (*planner.Roster, error) {
	return s.Planner.Plan(ctx, snap)
}

// Handler exposes the planning API, the run history, Prometheus metrics
// and a health probe. API routes require the configured bearer token.
func (s *Service) Handler() http.Handler {
	maxBody := int64(s.cfg.HTTP.MaxBodyMB) << 20
	mux := http.NewServeMux()
	mux.Handle("/api/plan", api.RequireBearer(s.cfg.HTTP.Token, plan.NewHandler(s, nil, maxBody)))
	mux.Handle("/api/runs", api.RequireBearer(s.cfg.HTTP.Token, runs.NewHandler(s.Store)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens on the configured address until ctx is canceled.
func (s *Service) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.HTTP.ReadTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the observers once they have handled pending events, then
// releases the run history, the broker connection and the metrics sinks.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.bus.Close()
		timeout := time.After(drainTimeout)
	drain:
		for _, d := range s.done {
			select {
			case <-d:
			case <-timeout:
				s.log.Warnf("observers did not drain within %s", drainTimeout)
				break drain
			}
		}
		if n := s.bus.Dropped(); n > 0 {
			s.log.Warnf("%d events dropped by slow observers", n)
		}
		s.cancel()
		s.closeErr = s.Store.Close()
		if s.client != nil {
			s.client.Disconnect()
		}
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
	})
	return s.closeErr
}
