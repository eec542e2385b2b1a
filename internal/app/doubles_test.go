package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/domain/gateway"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Fixed evaluation time shared by the scenario tests: 2024-05-14.
var testNow = time.Date(2024, time.May, 14, 12, 0, 0, 0, time.UTC)

const testPromo = "promo text"

// memStore is an in-memory birthday.Store recording save activity.
type memStore struct {
	mu       sync.Mutex
	doc      *birthday.Document
	saves    int
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{doc: birthday.NewDocument()}
}

func (s *memStore) Load(_ context.Context) (*birthday.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *memStore) Save(_ context.Context, doc *birthday.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("disk on fire")
	}
	s.doc = doc.Clone()
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) persisted() *birthday.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

type sentMessage struct {
	Recipient string
	Text      string
}

// fakeGateway records sends and can be told to fail for given recipients.
type fakeGateway struct {
	mu      sync.Mutex
	sends   []sentMessage
	failFor map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: make(map[string]bool)}
}

func (g *fakeGateway) Send(_ context.Context, recipientID, text string) (gateway.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, sentMessage{Recipient: recipientID, Text: text})
	if g.failFor[recipientID] {
		err := errors.New("gateway unreachable")
		return gateway.Result{Success: false, Error: err.Error()}, err
	}
	return gateway.Result{Success: true, MessageID: fmt.Sprintf("m%d", len(g.sends))}, nil
}

func (g *fakeGateway) sent() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentMessage, len(g.sends))
	copy(out, g.sends)
	return out
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}
