package app

import (
	"context"
	"testing"
	"time"

	"birthday_reminder_bot/internal/domain/event"
	"birthday_reminder_bot/internal/infra/dedup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngest(t *testing.T) (*IngestService, *memStore, *fakeGateway) {
	t.Helper()
	store := newMemStore()
	records, err := NewRecordService(context.Background(), store, testLogger())
	require.NoError(t, err)

	d := NewDispatcher(records, newTestMetrics(), testPromo, testLogger())
	d.now = func() time.Time { return testNow }

	gw := newFakeGateway()
	ingest := NewIngestService(
		event.NewNormalizer("bot-self"),
		dedup.NewCache(16),
		d,
		gw,
		newTestMetrics(),
		time.Second,
		testLogger(),
	)
	return ingest, store, gw
}

func TestDuplicateEventYieldsOneMutationAndOneSend(t *testing.T) {
	ingest, store, gw := newTestIngest(t)
	payload := map[string]any{
		"message": "add Mom 15-05-1970",
		"from":    "777",
		"id":      "E1",
	}

	ingest.HandleInbound(context.Background(), payload)
	ingest.HandleInbound(context.Background(), payload)

	assert.Equal(t, 1, store.saveCount(), "one store mutation for a redelivered event")
	assert.Len(t, gw.sent(), 1, "at most one outbound send for a redelivered event")
}

func TestIgnoredEventsProduceNoResponse(t *testing.T) {
	ingest, store, gw := newTestIngest(t)

	ingest.HandleInbound(context.Background(), map[string]any{"type": "delivery", "id": "S1"})
	ingest.HandleInbound(context.Background(), map[string]any{"message": "hi", "from": "1", "fromMe": true, "id": "S2"})
	ingest.HandleInbound(context.Background(), map[string]any{"message": "hi", "from": "bot-self", "id": "S3"})

	assert.Empty(t, gw.sent())
	assert.Zero(t, store.saveCount())
}

func TestGroupMessagesAreAnsweredInTheGroup(t *testing.T) {
	ingest, _, gw := newTestIngest(t)

	ingest.HandleInbound(context.Background(), map[string]any{
		"message": "list",
		"from":    "777",
		"chat_id": "fam@g.us",
		"id":      "G1",
	})

	sent := gw.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "fam@g.us", sent[0].Recipient)
}

func TestCommandTextIsNormalizedBeforeDispatch(t *testing.T) {
	ingest, store, gw := newTestIngest(t)

	ingest.HandleInbound(context.Background(), map[string]any{
		"message": "  ADD mom 15-05-1970  ",
		"from":    "777",
		"id":      "N1",
	})

	require.Len(t, gw.sent(), 1)
	_, ok := store.persisted().Personal["777"]["mom"]
	assert.True(t, ok, "name arrives lowercased from the normalizer")
}
