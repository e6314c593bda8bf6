package repository

import (
	"context"
	"database/sql"
	"strings"

	"poolctl/internal/models"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO events (device_id, ts, state, valve_id)
		VALUES (?, ?, ?, ?)
	`

	listSinceSQL = `
		SELECT ts, state, valve_id FROM events
		WHERE device_id = ? AND ts >= ?
		ORDER BY ts ASC LIMIT ?
	`

	deleteOlderThanSQL = `DELETE FROM events WHERE ts < ?`
)

// Insert appends one event row and returns the stored record with its
// server-assigned id. Rows are never updated afterwards.
func (r *EventSQLite) Insert(ctx context.Context, e models.HistoryEvent) (models.HistoryEvent, error) {
	e.DeviceID = strings.TrimSpace(e.DeviceID)
	e.State = strings.ToUpper(strings.TrimSpace(e.State))

	res, err := r.db.ExecContext(ctx, insertEventSQL, e.DeviceID, e.TS, e.State, e.ValveID)
	if err != nil {
		return models.HistoryEvent{}, err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return e, nil
}

// ListSince returns events for deviceID with ts >= sinceTs, ascending,
// capped at limit. Legacy rows with NULL valve_id read back as valve 1.
func (r *EventSQLite) ListSince(ctx context.Context, deviceID string, sinceTs int64, limit int) ([]models.HistoryItem, error) {
	rows, err := r.db.QueryContext(ctx, listSinceSQL, deviceID, sinceTs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.HistoryItem, 0, 64)
	for rows.Next() {
		var (
			item  models.HistoryItem
			valve sql.NullInt64
		)
		if err := rows.Scan(&item.TS, &item.State, &valve); err != nil {
			return nil, err
		}
		if valve.Valid && valve.Int64 != 0 {
			item.ValveID = int(valve.Int64)
		} else {
			item.ValveID = 1
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOlderThan prunes rows with ts < cutoffTs and reports how many went.
func (r *EventSQLite) DeleteOlderThan(ctx context.Context, cutoffTs int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteOlderThanSQL, cutoffTs)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
