package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kilianp07/rosterplan/core/events"
	"github.com/kilianp07/rosterplan/core/logger"
	"github.com/kilianp07/rosterplan/internal/eventbus"
)

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// RosterMessage is the payload announcing a published roster.
type RosterMessage struct {
	RunID       string            `json:"run_id"`
	Status      string            `json:"status"`
	Objective   int               `json:"objective"`
	Assignments map[string]string `json:"assignments"`
}

// RosterPublisher announces every successful planning run.
type RosterPublisher struct {
	pub   Publisher
	topic string
	log   logger.Logger
}

// NewRosterPublisher publishes on cfg.RosterTopic() through pub.
func NewRosterPublisher(pub Publisher, cfg Config, log logger.Logger) *RosterPublisher {
	return &RosterPublisher{pub: pub, topic: cfg.RosterTopic(), log: logger.OrNop(log)}
}

// Topic returns the destination topic.
func (r *RosterPublisher) Topic() string { return r.topic }

// PublishRoster encodes and sends msg.
func (r *RosterPublisher) PublishRoster(msg RosterMessage) error {
	if msg.Assignments == nil {
		msg.Assignments = map[string]string{}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return r.pub.Publish(r.topic, payload)
}

// Start forwards every RunFinished event carrying a roster until ctx is
// canceled or the bus is closed. The returned channel is closed on exit.
func (r *RosterPublisher) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(events.RunFinished)
				if !ok || e.Err != nil || e.Assignments == nil {
					continue
				}
				msg := RosterMessage{RunID: e.RunID, Status: e.Status, Objective: e.Objective, Assignments: e.Assignments}
				if err := r.PublishRoster(msg); err != nil {
					r.log.Errorf("publish roster %s: %v", e.RunID, err)
				}
			}
		}
	}()
	return done
}

// MockPublisher records published payloads. Used in tests and dry runs.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][][]byte
	Fail     error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

// Publish records the payload or returns the configured failure.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Messages[topic] = append(m.Messages[topic], append([]byte(nil), payload...))
	return nil
}

// Count returns the number of payloads sent to topic.
func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[topic])
}
