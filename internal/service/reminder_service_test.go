package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/notify"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

type memReminders struct {
	items map[string]*model.Reminder
}

func (m *memReminders) CreateBatch(_ context.Context, items []*model.Reminder) error {
	for _, it := range items {
		cp := *it
		m.items[it.ID] = &cp
	}
	return nil
}

func (m *memReminders) ListDue(_ context.Context, now int64, _ uint) ([]*model.Reminder, error) {
	var out []*model.Reminder
	for _, it := range m.items {
		if it.State == model.ReminderStatePending && it.FireAt <= now {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReminders) UpdateState(_ context.Context, id, state string, attempts int, mtime int64) error {
	it, ok := m.items[id]
	if !ok {
		return appErr.ErrNotFound
	}
	it.State, it.Attempts, it.Mtime = state, attempts, mtime
	return nil
}

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg notify.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestExpandMedicineShiftsPastTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	later, err := ExpandMedicine("a@b.com", model.Medicine{Name: "Aspirin", Time: "21:00", Days: 2}, now)
	require.NoError(t, err)
	require.Len(t, later, 2)
	require.Equal(t, time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC).Unix(), later[0].FireAt)
	require.Equal(t, time.Date(2024, 3, 11, 21, 0, 0, 0, time.UTC).Unix(), later[1].FireAt)

	passed, err := ExpandMedicine("a@b.com", model.Medicine{Name: "Aspirin", Time: "08:00", Days: 3}, now)
	require.NoError(t, err)
	require.Len(t, passed, 3)
	require.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC).Unix(), passed[0].FireAt)
	require.Equal(t, time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC).Unix(), passed[2].FireAt)
	for _, r := range passed {
		require.Equal(t, model.ReminderStatePending, r.State)
	}
}

func TestExpandMedicineValidates(t *testing.T) {
	now := time.Now()
	_, err := ExpandMedicine("a@b.com", model.Medicine{Name: "X", Time: "25:00", Days: 1}, now)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = ExpandMedicine("a@b.com", model.Medicine{Name: "X", Time: "08:00", Days: 0}, now)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = ExpandMedicine("a@b.com", model.Medicine{Time: "08:00", Days: 1}, now)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestScheduleAndDispatch(t *testing.T) {
	ctx := context.Background()
	store := &memReminders{items: map[string]*model.Reminder{}}
	sender := &recordingSender{}
	svc := NewReminderService(store, sender)
	start := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	n, err := svc.Schedule(ctx, "a@b.com", []model.Medicine{
		{Name: "Aspirin", Dosage: "1 tablet", Time: "10:00", Days: 2},
		{Name: "Vitamin D", Dosage: "1 capsule", Time: "10:00", Days: 1},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	svc.now = func() time.Time { return start.Add(time.Hour) }
	sent, failed, err := svc.Dispatch(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Zero(t, failed)
	require.Len(t, sender.sent, 2)
	require.Contains(t, sender.sent[0].Subject, "Health Reminder: ")
	require.Contains(t, sender.sent[0].Subject, " - 10:30 AM")

	sent, _, err = svc.Dispatch(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestDispatchRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	store := &memReminders{items: map[string]*model.Reminder{
		"r1": {ID: "r1", Email: "a@b.com", Medicine: "Aspirin", FireAt: 1, State: model.ReminderStatePending},
	}}
	svc := NewReminderService(store, &recordingSender{err: errors.New("smtp down")})

	for i := 1; i <= maxReminderAttempts; i++ {
		_, failed, err := svc.Dispatch(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, failed)
		require.Equal(t, i, store.items["r1"].Attempts)
	}
	require.Equal(t, model.ReminderStateFailed, store.items["r1"].State)
	_, failed, err := svc.Dispatch(ctx)
	require.NoError(t, err)
	require.Zero(t, failed)
}

func TestScheduleRejectsBadEmail(t *testing.T) {
	svc := NewReminderService(&memReminders{items: map[string]*model.Reminder{}}, &recordingSender{})
	_, err := svc.Schedule(context.Background(), "nope", []model.Medicine{{Name: "A", Time: "08:00", Days: 1}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
