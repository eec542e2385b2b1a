package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/domain/gateway"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ReminderService scans all stored records and notifies owners whose
// birthdays are exactly the configured lead time away. Sending is
// fire-and-forget per record: one failure is logged and never aborts the
// scan, and there is no retry queue across runs.
type ReminderService struct {
	records     *RecordService
	gateway     gateway.Client
	metrics     *metrics.Metrics
	log         *logrus.Entry
	leadDays    int
	sendTimeout time.Duration
	now         func() time.Time
}

func NewReminderService(
	records *RecordService,
	gw gateway.Client,
	m *metrics.Metrics,
	leadDays int,
	sendTimeout time.Duration,
	log *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		records:     records,
		gateway:     gw,
		metrics:     m,
		log:         log,
		leadDays:    leadDays,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

type reminderTarget struct {
	recipient string
	subject   string
	date      birthday.Date
	days      int
}

// RunScan walks every personal and group record once, against "now".
func (s *ReminderService) RunScan(ctx context.Context) error {
	today := s.now()
	doc := s.records.Snapshot()

	var due []reminderTarget
	for owner, list := range doc.Personal {
		for _, rec := range list {
			if _, days := birthday.NextOccurrence(rec.Date, today); days == s.leadDays {
				due = append(due, reminderTarget{recipient: owner, subject: rec.SubjectName, date: rec.Date, days: days})
			}
		}
	}
	for groupID, grp := range doc.Groups {
		for _, rec := range grp.Members {
			if _, days := birthday.NextOccurrence(rec.Date, today); days == s.leadDays {
				due = append(due, reminderTarget{recipient: groupID, subject: rec.SubjectName, date: rec.Date, days: days})
			}
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].recipient != due[j].recipient {
			return due[i].recipient < due[j].recipient
		}
		return due[i].subject < due[j].subject
	})

	s.log.WithFields(logrus.Fields{"due": len(due), "lead_days": s.leadDays}).Info("Reminder scan starting")

	sent := 0
	for _, t := range due {
		msg := fmt.Sprintf("🎁 Reminder: %s's birthday is on %s — %s!", t.subject, birthday.FormatMonthDay(t.date), phraseDays(t.days))

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		res, err := s.gateway.Send(sendCtx, t.recipient, msg)
		cancel()

		logCtx := s.log.WithFields(logrus.Fields{"recipient": t.recipient, "subject": t.subject})
		if err != nil || !res.Success {
			s.metrics.GatewayFailures.Inc()
			logCtx.WithError(err).WithField("gateway_error", res.Error).Error("Reminder send failed")
			continue
		}
		s.metrics.RemindersSent.Inc()
		sent++
		logCtx.WithField("message_id", res.MessageID).Info("Reminder sent")
	}

	s.log.WithFields(logrus.Fields{"due": len(due), "sent": sent}).Info("Reminder scan finished")
	return nil
}
