package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vitals_overlay/internal/models"

	"github.com/google/uuid"
)

// sqliteTimeLayout is the TIMESTAMP text form used for both writes and range filters.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

const insertFeedEventSQL = `
		INSERT INTO feed_events (id, occurred_at, feed, type, message)
		VALUES (?, ?, ?, ?, ?)
	`

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e models.FeedEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertFeedEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(sqliteTimeLayout),
		strings.ToLower(strings.TrimSpace(e.Feed)),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive), feed and/or type, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, feed, typ string) ([]models.FeedEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if feed = strings.ToLower(strings.TrimSpace(feed)); feed != "" {
		conds = append(conds, "feed = ?")
		args = append(args, feed)
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, feed, type, message FROM feed_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.FeedEvent, 0, 64)
	for rows.Next() {
		var ev models.FeedEvent
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Feed, &ev.Type, &ev.Description); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
