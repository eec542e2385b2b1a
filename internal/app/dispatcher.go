package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"birthday_reminder_bot/internal/domain/birthday"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

var errNameNotFound = errors.New("no birthday record with that name")

const welcomeText = `👋 Hi! I'm BirthdayBot. I keep track of birthdays and remind you before they happen.

Commands:
• add <name> <date> — save a birthday, e.g. add Mom 15-05-1970
• remove <name> — delete a saved birthday
• list — show all saved birthdays
• next — show the nearest upcoming birthday
• help — show the full command reference`

const helpText = `📖 Command reference:

• add <name> <date>
  Save a birthday. Dates: DD-MM-YYYY, DD/MM/YYYY, YYYY-MM-DD, MM/DD/YYYY, DD-MM or DD/MM.
  In a group chat the birthday is shared with the whole group.

• remove <name>
  Delete a saved birthday from this chat.

• list
  Show every birthday saved in this chat, soonest first.

• next
  Show only the nearest upcoming birthday.

I'll also send a reminder the day before each birthday.`

const addUsageText = "❌ Usage: add <name> <date>, e.g. add Mom 15-05-1970"
const invalidDateText = "❌ I couldn't read that date. Try DD-MM-YYYY, like 15-05-1970, or just DD-MM."
const removeUsageText = "❌ Usage: remove <name>, e.g. remove Mom"
const emptyListText = "📭 No birthdays saved yet. Add one with: add <name> <date>"
const genericErrorText = "⚠️ Something went wrong on my side. Please try again in a moment."

var greetings = map[string]bool{
	"hi":    true,
	"hello": true,
	"hey":   true,
	"start": true,
	"menu":  true,
}

// Dispatcher maps a parsed command plus the current store state to a response
// and a store mutation. It is deterministic given store state; the only
// side effects are record mutations and metrics.
type Dispatcher struct {
	records *RecordService
	metrics *metrics.Metrics
	promo   string
	now     func() time.Time
	log     *logrus.Entry
}

func NewDispatcher(records *RecordService, m *metrics.Metrics, promoText string, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		records: records,
		metrics: m,
		promo:   promoText,
		now:     time.Now,
		log:     log,
	}
}

// Dispatch handles one command and returns the full response text. Every
// response ends with the promotional suffix. Failures on mutation paths are
// absorbed here and never propagate to the ingestion layer.
func (d *Dispatcher) Dispatch(ctx context.Context, text, senderID, groupID string) string {
	return d.dispatch(ctx, text, senderID, groupID) + "\n\n" + d.promo
}

func (d *Dispatcher) dispatch(ctx context.Context, text, senderID, groupID string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{"panic": r, "sender_id": senderID}).Error("Dispatcher panicked")
			reply = genericErrorText
		}
	}()

	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		d.metrics.CommandsProcessed.WithLabelValues("greeting").Inc()
		return welcomeText
	}

	command := strings.ToLower(fields[0])
	if len(fields) == 1 && greetings[command] {
		d.metrics.CommandsProcessed.WithLabelValues("greeting").Inc()
		return welcomeText
	}

	switch command {
	case "help":
		d.metrics.CommandsProcessed.WithLabelValues("help").Inc()
		return helpText
	case "add":
		d.metrics.CommandsProcessed.WithLabelValues("add").Inc()
		return d.handleAdd(ctx, fields[1:], senderID, groupID)
	case "remove":
		d.metrics.CommandsProcessed.WithLabelValues("remove").Inc()
		return d.handleRemove(ctx, fields[1:], senderID, groupID)
	case "list":
		d.metrics.CommandsProcessed.WithLabelValues("list").Inc()
		return d.handleList(senderID, groupID)
	case "next":
		d.metrics.CommandsProcessed.WithLabelValues("next").Inc()
		return d.handleNext(senderID, groupID)
	default:
		d.metrics.CommandsProcessed.WithLabelValues("fallthrough").Inc()
		return welcomeText
	}
}

func (d *Dispatcher) handleAdd(ctx context.Context, args []string, senderID, groupID string) string {
	if len(args) < 2 {
		return addUsageText
	}
	// The date is the last token; everything before it is the subject name.
	dateText := args[len(args)-1]
	name := strings.Join(args[:len(args)-1], " ")

	date, err := birthday.ParseDate(dateText)
	if err != nil {
		return invalidDateText
	}

	now := d.now()
	_, days := birthday.NextOccurrence(date, now)
	rec := birthday.Record{
		SubjectName: name,
		Date:        date,
		AddedBy:     senderID,
		AddedAt:     now,
	}

	err = d.records.Mutate(ctx, func(doc *birthday.Document) error {
		if groupID != "" {
			grp, ok := doc.Groups[groupID]
			if !ok {
				grp = birthday.Group{
					GroupID:     groupID,
					DisplayName: groupDisplayName(groupID),
					Members:     make(map[string]birthday.Record),
				}
			}
			grp.Members[name] = rec
			doc.Groups[groupID] = grp
			return nil
		}
		doc.PersonalList(senderID)[name] = rec
		return nil
	})
	if err != nil {
		d.log.WithError(err).WithField("sender_id", senderID).Error("Add command failed to persist")
		return genericErrorText
	}

	reply := fmt.Sprintf("🎂 Birthday saved for %s on %s!", name, birthday.FormatDate(date))
	if days == 0 {
		return reply + " It's today! 🎉"
	}
	return reply + fmt.Sprintf(" Coming up in %d days!", days)
}

func (d *Dispatcher) handleRemove(ctx context.Context, args []string, senderID, groupID string) string {
	if len(args) == 0 {
		return removeUsageText
	}
	name := strings.Join(args, " ")

	var removed string
	err := d.records.Mutate(ctx, func(doc *birthday.Document) error {
		var scope map[string]birthday.Record
		if groupID != "" {
			scope = doc.Groups[groupID].Members
		} else {
			scope = doc.Personal[senderID]
		}
		if len(scope) == 0 {
			return errNameNotFound
		}
		if _, ok := scope[name]; ok {
			delete(scope, name)
			removed = name
			return nil
		}
		// Exact-case miss: fall back to a case-insensitive exact-name lookup.
		for stored := range scope {
			if strings.EqualFold(stored, name) {
				delete(scope, stored)
				removed = stored
				return nil
			}
		}
		return errNameNotFound
	})
	if errors.Is(err, errNameNotFound) {
		return fmt.Sprintf("🤷 No birthday found for %s.", name)
	}
	if err != nil {
		d.log.WithError(err).WithField("sender_id", senderID).Error("Remove command failed to persist")
		return genericErrorText
	}
	return fmt.Sprintf("🗑️ Removed %s's birthday.", removed)
}

type listEntry struct {
	name string
	date birthday.Date
	days int
}

func (d *Dispatcher) handleList(senderID, groupID string) string {
	entries := d.scopeEntries(senderID, groupID)
	if len(entries) == 0 {
		return emptyListText
	}

	var b strings.Builder
	b.WriteString("🎉 Birthdays:")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n• %s — %s (%s)", e.name, birthday.FormatMonthDay(e.date), phraseDays(e.days))
	}
	return b.String()
}

func (d *Dispatcher) handleNext(senderID, groupID string) string {
	entries := d.scopeEntries(senderID, groupID)
	if len(entries) == 0 {
		return emptyListText
	}
	e := entries[0]
	return fmt.Sprintf("🎂 Next birthday: %s on %s — %s!", e.name, birthday.FormatMonthDay(e.date), phraseDays(e.days))
}

// scopeEntries collects the addressed scope's records sorted ascending by
// days-until, ties broken by name for a stable ordering.
func (d *Dispatcher) scopeEntries(senderID, groupID string) []listEntry {
	doc := d.records.Snapshot()
	var scope map[string]birthday.Record
	if groupID != "" {
		scope = doc.Groups[groupID].Members
	} else {
		scope = doc.Personal[senderID]
	}

	now := d.now()
	entries := make([]listEntry, 0, len(scope))
	for name, rec := range scope {
		_, days := birthday.NextOccurrence(rec.Date, now)
		entries = append(entries, listEntry{name: name, date: rec.Date, days: days})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].days != entries[j].days {
			return entries[i].days < entries[j].days
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

func phraseDays(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// groupDisplayName derives a readable group name from an id fragment, e.g.
// "family-chat@g.us" becomes "family-chat".
func groupDisplayName(groupID string) string {
	if i := strings.IndexByte(groupID, '@'); i > 0 {
		return groupID[:i]
	}
	return groupID
}
