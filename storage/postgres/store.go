// Package postgres provides the database-backed Storage implementation.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/storage"
)

// schema is applied by EnsureSchema at startup. Exceptions and overrides
// live in child tables keyed by (event id, date), mirroring the two
// distinct mechanisms: an exception removes an instance, an override
// modifies or cancels a still-visible one.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                 UUID PRIMARY KEY,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	organizer          TEXT NOT NULL DEFAULT '',
	url                TEXT NOT NULL DEFAULT '',
	tags               TEXT[] NOT NULL DEFAULT '{}',
	starts_at          TIMESTAMPTZ NOT NULL,
	ends_at            TIMESTAMPTZ NOT NULL,
	timezone           TEXT NOT NULL DEFAULT '',
	rule_text          TEXT NOT NULL DEFAULT '',
	series_title       TEXT NOT NULL DEFAULT '',
	series_description TEXT NOT NULL DEFAULT '',
	created            TIMESTAMPTZ NOT NULL DEFAULT now(),
	modified           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS event_exceptions (
	event_id       UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	exception_date DATE NOT NULL,
	PRIMARY KEY (event_id, exception_date)
);

CREATE TABLE IF NOT EXISTS event_overrides (
	event_id      UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	instance_date DATE NOT NULL,
	override_type TEXT NOT NULL,
	title         TEXT,
	description   TEXT,
	location      TEXT,
	starts_at     TIMESTAMPTZ,
	ends_at       TIMESTAMPTZ,
	cancel_reason TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (event_id, instance_date)
);
`

// Store implements storage.Storage on PostgreSQL via database/sql and
// lib/pq.
type Store struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

const eventColumns = `id, title, description, location, category, organizer, url, tags,
	starts_at, ends_at, timezone, rule_text, series_title, series_description, created, modified`

func (s *Store) GetEvent(ctx context.Context, id string) (*storage.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
	}
	if err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "load event", Err: err}
	}

	if err := s.loadSeriesState(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]*storage.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY starts_at`)
	if err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "list events", Err: err}
	}
	defer rows.Close()

	var events []*storage.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "scan event", Err: err}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "list events", Err: err}
	}

	for _, event := range events {
		if err := s.loadSeriesState(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *storage.Event) error {
	if event == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "event is nil"}
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now()
	event.Created = now
	event.Modified = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, title, description, location, category, organizer, url, tags,
				starts_at, ends_at, timezone, rule_text, series_title, series_description, created, modified)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			event.ID, event.Title, event.Description, event.Location, event.Category,
			event.Organizer, event.URL, pq.Array(event.Tags),
			event.StartsAt, event.EndsAt, event.TimeZone, event.RuleText,
			event.SeriesTitle, event.SeriesDescription, event.Created, event.Modified)
		if err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "insert event", Err: err}
		}
		return s.saveSeriesState(ctx, tx, event)
	})
}

func (s *Store) UpdateEvent(ctx context.Context, event *storage.Event) error {
	if event == nil || event.ID == "" {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "event id is required"}
	}
	event.Modified = time.Now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE events SET title=$2, description=$3, location=$4, category=$5,
				organizer=$6, url=$7, tags=$8, starts_at=$9, ends_at=$10, timezone=$11,
				rule_text=$12, series_title=$13, series_description=$14, modified=$15
			WHERE id=$1`,
			event.ID, event.Title, event.Description, event.Location, event.Category,
			event.Organizer, event.URL, pq.Array(event.Tags),
			event.StartsAt, event.EndsAt, event.TimeZone, event.RuleText,
			event.SeriesTitle, event.SeriesDescription, event.Modified)
		if err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "update event", Err: err}
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
		}
		return s.saveSeriesState(ctx, tx, event)
	})
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "delete event", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: "event not found"}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "begin tx", Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "commit tx", Err: err}
	}
	return nil
}

// saveSeriesState replaces the child rows wholesale. The resolver hands
// back complete exception/override collections, so a replace keeps the
// stored state exactly in sync with the record.
func (s *Store) saveSeriesState(ctx context.Context, tx *sql.Tx, event *storage.Event) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_exceptions WHERE event_id = $1`, event.ID); err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "clear exceptions", Err: err}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_overrides WHERE event_id = $1`, event.ID); err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "clear overrides", Err: err}
	}

	for _, d := range event.Exceptions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_exceptions (event_id, exception_date) VALUES ($1, $2)`,
			event.ID, d.In(time.UTC)); err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "insert exception", Err: err}
		}
	}

	for _, o := range event.Overrides {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_overrides (event_id, instance_date, override_type,
				title, description, location, starts_at, ends_at, cancel_reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			event.ID, o.Date.In(time.UTC), string(o.Type),
			nullString(o.Title), nullString(o.Description), nullString(o.Location),
			nullTime(o.Start), nullTime(o.End), o.CancelReason)
		if err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "insert override", Err: err}
		}
	}
	return nil
}

func (s *Store) loadSeriesState(ctx context.Context, event *storage.Event) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exception_date FROM event_exceptions WHERE event_id = $1 ORDER BY exception_date`,
		event.ID)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "load exceptions", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "scan exception", Err: err}
		}
		event.Exceptions = append(event.Exceptions, recurrence.DateOf(t))
	}
	if err := rows.Err(); err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "load exceptions", Err: err}
	}

	oRows, err := s.db.QueryContext(ctx, `
		SELECT instance_date, override_type, title, description, location,
			starts_at, ends_at, cancel_reason
		FROM event_overrides WHERE event_id = $1 ORDER BY instance_date`, event.ID)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "load overrides", Err: err}
	}
	defer oRows.Close()

	for oRows.Next() {
		var (
			date         time.Time
			overrideType string
			title        sql.NullString
			description  sql.NullString
			location     sql.NullString
			startsAt     sql.NullTime
			endsAt       sql.NullTime
			cancelReason string
		)
		if err := oRows.Scan(&date, &overrideType, &title, &description, &location,
			&startsAt, &endsAt, &cancelReason); err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "scan override", Err: err}
		}
		event.Overrides = append(event.Overrides, recurrence.Override{
			Date:         recurrence.DateOf(date),
			Type:         recurrence.OverrideType(overrideType),
			Title:        optionString(title),
			Description:  optionString(description),
			Location:     optionString(location),
			Start:        optionTime(startsAt),
			End:          optionTime(endsAt),
			CancelReason: cancelReason,
		})
	}
	return oRows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*storage.Event, error) {
	var event storage.Event
	var tags pq.StringArray
	err := row.Scan(&event.ID, &event.Title, &event.Description, &event.Location,
		&event.Category, &event.Organizer, &event.URL, &tags,
		&event.StartsAt, &event.EndsAt, &event.TimeZone, &event.RuleText,
		&event.SeriesTitle, &event.SeriesDescription, &event.Created, &event.Modified)
	if err != nil {
		return nil, err
	}
	event.Tags = []string(tags)
	return &event, nil
}

func nullString(o mo.Option[string]) sql.NullString {
	if v, ok := o.Get(); ok {
		return sql.NullString{String: v, Valid: true}
	}
	return sql.NullString{}
}

func nullTime(o mo.Option[time.Time]) sql.NullTime {
	if v, ok := o.Get(); ok {
		return sql.NullTime{Time: v, Valid: true}
	}
	return sql.NullTime{}
}

func optionString(v sql.NullString) mo.Option[string] {
	if v.Valid {
		return mo.Some(v.String)
	}
	return mo.None[string]()
}

func optionTime(v sql.NullTime) mo.Option[time.Time] {
	if v.Valid {
		return mo.Some(v.Time)
	}
	return mo.None[time.Time]()
}
