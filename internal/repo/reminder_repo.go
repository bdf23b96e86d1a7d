package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/pkg/dbutil"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

type ReminderRepo struct {
	db *sql.DB
}

func NewReminderRepo(db *sql.DB) *ReminderRepo {
	return &ReminderRepo{db: db}
}

func (r *ReminderRepo) CreateBatch(ctx context.Context, items []*model.Reminder) error {
	if len(items) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, map[string]interface{}{
			"id":       item.ID,
			"email":    item.Email,
			"medicine": item.Medicine,
			"dosage":   item.Dosage,
			"fire_at":  item.FireAt,
			"state":    item.State,
			"attempts": item.Attempts,
			"ctime":    item.Ctime,
			"mtime":    item.Mtime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("reminders", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListDue returns pending reminders whose fire time is at or before now,
// oldest first.
func (r *ReminderRepo) ListDue(ctx context.Context, now int64, limit uint) ([]*model.Reminder, error) {
	where := map[string]interface{}{
		"state":      model.ReminderStatePending,
		"fire_at <=": now,
		"_orderby":   "fire_at asc",
		"_limit":     []uint{0, limit},
	}
	fields := []string{"id", "email", "medicine", "dosage", "fire_at", "state", "attempts", "ctime", "mtime"}
	sqlStr, args, err := builder.BuildSelect("reminders", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Reminder
	for rows.Next() {
		var item model.Reminder
		if err := rows.Scan(&item.ID, &item.Email, &item.Medicine, &item.Dosage, &item.FireAt,
			&item.State, &item.Attempts, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func (r *ReminderRepo) UpdateState(ctx context.Context, id, state string, attempts int, mtime int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{
		"state":    state,
		"attempts": attempts,
		"mtime":    mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("reminders", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
