package app

import (
	"context"
	"fmt"
	"sync"

	"birthday_reminder_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
)

// RecordService owns the in-memory birthday document and the single
// mutual-exclusion domain guarding it. Every mutation runs load-state →
// mutate → persist under one lock so concurrent webhook deliveries cannot
// lose updates. Gateway sends must happen after the lock is released.
type RecordService struct {
	mu    sync.Mutex
	store birthday.Store
	doc   *birthday.Document
	log   *logrus.Entry
}

// NewRecordService loads the persisted document once at startup.
func NewRecordService(ctx context.Context, store birthday.Store, log *logrus.Entry) (*RecordService, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading birthday store: %w", err)
	}
	doc.EnsureInit()
	return &RecordService{store: store, doc: doc, log: log}, nil
}

// Mutate applies fn to the document and persists the full document before
// releasing the lock. When fn returns an error nothing is persisted. When the
// save fails the in-memory mutation is not rolled back; the caller must treat
// the command as not reliably committed.
func (s *RecordService) Mutate(ctx context.Context, fn func(doc *birthday.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.doc); err != nil {
		s.log.WithError(err).Error("Failed to persist birthday document")
		return fmt.Errorf("persisting birthday document: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current document for lock-free reads.
func (s *RecordService) Snapshot() *birthday.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Counts reports personal list, group, and total record counts.
func (s *RecordService) Counts() (personalLists, groups, records int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Counts()
}
