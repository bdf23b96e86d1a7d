package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/metrics"
	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/notify"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/timeutil"
)

const (
	maxReminderDays     = 365
	maxReminderAttempts = 3
	dispatchBatch       = 100
)

type reminderStore interface {
	CreateBatch(ctx context.Context, items []*model.Reminder) error
	ListDue(ctx context.Context, now int64, limit uint) ([]*model.Reminder, error)
	UpdateState(ctx context.Context, id, state string, attempts int, mtime int64) error
}

type ReminderService struct {
	reminders reminderStore
	sender    notify.Sender
	now       func() time.Time
}

func NewReminderService(reminders reminderStore, sender notify.Sender) *ReminderService {
	return &ReminderService{reminders: reminders, sender: sender, now: time.Now}
}

// Schedule stores one reminder per medicine per day and returns how many were
// created.
func (s *ReminderService) Schedule(ctx context.Context, email string, medicines []model.Medicine) (int, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || len(medicines) == 0 {
		return 0, appErr.ErrInvalid
	}
	now := s.now()
	var items []*model.Reminder
	for _, m := range medicines {
		expanded, err := ExpandMedicine(email, m, now)
		if err != nil {
			return 0, err
		}
		items = append(items, expanded...)
	}
	if err := s.reminders.CreateBatch(ctx, items); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("reminders scheduled", zap.Int("count", len(items)), zap.Int("medicines", len(medicines)))
	return len(items), nil
}

// ExpandMedicine creates reminders at m.Time on m.Days consecutive days. The
// first one is today, or tomorrow when today's time has already passed.
func ExpandMedicine(email string, m model.Medicine, now time.Time) ([]*model.Reminder, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" || m.Days <= 0 || m.Days > maxReminderDays {
		return nil, fmt.Errorf("%w: medicine %q needs a name and 1-%d days", appErr.ErrInvalid, name, maxReminderDays)
	}
	hour, minute, err := timeutil.ParseClock(strings.TrimSpace(m.Time))
	if err != nil {
		return nil, fmt.Errorf("%w: medicine %q time %q", appErr.ErrInvalid, name, m.Time)
	}
	first := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if first.Before(now) {
		first = first.AddDate(0, 0, 1)
	}
	ctime := now.Unix()
	out := make([]*model.Reminder, 0, m.Days)
	for day := 0; day < m.Days; day++ {
		out = append(out, &model.Reminder{
			ID:       newID(),
			Email:    email,
			Medicine: name,
			Dosage:   strings.TrimSpace(m.Dosage),
			FireAt:   first.AddDate(0, 0, day).Unix(),
			State:    model.ReminderStatePending,
			Ctime:    ctime,
			Mtime:    ctime,
		})
	}
	return out, nil
}

// Dispatch sends every due reminder. A failed send stays pending until it has
// been attempted maxReminderAttempts times.
func (s *ReminderService) Dispatch(ctx context.Context) (sent int, failed int, err error) {
	now := s.now()
	due, err := s.reminders.ListDue(ctx, now.Unix(), dispatchBatch)
	if err != nil {
		return 0, 0, err
	}
	logger := logutil.GetLogger(ctx)
	for _, r := range due {
		attempts := r.Attempts + 1
		state := model.ReminderStateSent
		if sendErr := s.sender.Send(ctx, BuildReminderMessage(r, now)); sendErr != nil {
			logger.Error("send reminder failed", zap.String("reminder_id", r.ID), zap.Int("attempts", attempts), zap.Error(sendErr))
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			failed++
			state = model.ReminderStatePending
			if attempts >= maxReminderAttempts {
				state = model.ReminderStateFailed
			}
		} else {
			metrics.RemindersSent.WithLabelValues("ok").Inc()
			sent++
		}
		if err := s.reminders.UpdateState(ctx, r.ID, state, attempts, now.Unix()); err != nil {
			return sent, failed, err
		}
	}
	return sent, failed, nil
}

func BuildReminderMessage(r *model.Reminder, at time.Time) notify.Message {
	clock := at.Format("03:04 PM")
	text := fmt.Sprintf(`HEALTH REMINDER

Hello,

This is your scheduled reminder about your health routine:

Medication: %s
Dosage: %s
Time: %s

Taking your medication as directed by your healthcare provider is important for your wellbeing.

Best regards,
Your Healthcare Team`, r.Medicine, r.Dosage, clock)
	return notify.Message{
		To:      r.Email,
		Subject: fmt.Sprintf("Health Reminder: %s - %s", r.Medicine, clock),
		Text:    text,
	}
}
