package app

import (
	"context"
	"errors"
	"time"

	"birthday_reminder_bot/internal/domain/event"
	"birthday_reminder_bot/internal/domain/gateway"
	"birthday_reminder_bot/internal/infra/dedup"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// IngestService runs the inbound pipeline: normalize → dedup → dispatch →
// send. It never returns an error to the webhook layer; the transport always
// acknowledges the provider to avoid redelivery storms, so every internal
// failure is absorbed into a log entry or a user-facing chat message.
type IngestService struct {
	normalizer  *event.Normalizer
	cache       *dedup.Cache
	dispatcher  *Dispatcher
	gateway     gateway.Client
	metrics     *metrics.Metrics
	log         *logrus.Entry
	sendTimeout time.Duration
}

func NewIngestService(
	normalizer *event.Normalizer,
	cache *dedup.Cache,
	dispatcher *Dispatcher,
	gw gateway.Client,
	m *metrics.Metrics,
	sendTimeout time.Duration,
	log *logrus.Entry,
) *IngestService {
	return &IngestService{
		normalizer:  normalizer,
		cache:       cache,
		dispatcher:  dispatcher,
		gateway:     gw,
		metrics:     m,
		log:         log,
		sendTimeout: sendTimeout,
	}
}

// HandleInbound processes one raw webhook payload end to end.
func (s *IngestService) HandleInbound(ctx context.Context, payload map[string]any) {
	s.metrics.EventsReceived.Inc()

	evt, err := s.normalizer.Normalize(payload)
	if err != nil {
		var ignored *event.IgnoredError
		if errors.As(err, &ignored) {
			s.metrics.EventsIgnored.WithLabelValues(ignored.Reason).Inc()
			s.log.WithField("reason", ignored.Reason).Debug("Inbound event ignored")
		} else {
			s.log.WithError(err).Warn("Failed to normalize inbound event")
		}
		return
	}

	if s.cache.Seen(evt.EventID) {
		s.metrics.EventsDuplicate.Inc()
		s.log.WithField("event_id", evt.EventID).Debug("Duplicate event dropped")
		return
	}
	s.cache.MarkSeen(evt.EventID)

	logCtx := s.log.WithFields(logrus.Fields{
		"event_id":  evt.EventID,
		"sender_id": evt.SenderID,
	})
	if evt.SyntheticID {
		logCtx.Debug("Event id synthesized from sender and timestamp")
	}

	reply := s.dispatcher.Dispatch(ctx, evt.Text, evt.SenderID, evt.GroupID)

	// The reply goes back to the conversation the command came from. The
	// store lock has been released by now; only the send blocks on I/O.
	recipient := evt.SenderID
	if evt.GroupID != "" {
		recipient = evt.GroupID
	}

	sendCtx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()
	res, err := s.gateway.Send(sendCtx, recipient, reply)
	if err != nil || !res.Success {
		s.metrics.GatewayFailures.Inc()
		logCtx.WithError(err).WithField("gateway_error", res.Error).Error("Failed to send response")
		return
	}
	logCtx.WithField("message_id", res.MessageID).Info("Response sent")
}
