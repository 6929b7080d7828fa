package model

import (
	"context"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CanonicalSessionCalendarsModel = (*defaultCanonicalSessionCalendarsModel)(nil)

type (
	// CanonicalSessionCalendarsModel upserts venue session windows by natural key.
	CanonicalSessionCalendarsModel interface {
		Upsert(ctx context.Context, session sqlx.Session, data *CanonicalSessionCalendar) error
	}

	CanonicalSessionCalendar struct {
		Venue          string `db:"venue"`
		SessionDate    string `db:"session_date"`
		IsOpen         bool   `db:"is_open"`
		SessionStart   string `db:"session_start"`
		SessionEnd     string `db:"session_end"`
		Timezone       string `db:"timezone"`
		SourceProvider string `db:"source_provider"`
	}

	defaultCanonicalSessionCalendarsModel struct {
		flavor Flavor
	}
)

// NewCanonicalSessionCalendarsModel returns a model for the canonical_session_calendars table.
func NewCanonicalSessionCalendarsModel(flavor Flavor) CanonicalSessionCalendarsModel {
	return &defaultCanonicalSessionCalendarsModel{flavor: flavor}
}

func (m *defaultCanonicalSessionCalendarsModel) Upsert(ctx context.Context, session sqlx.Session, data *CanonicalSessionCalendar) error {
	if m.flavor == FlavorPostgres {
		const q = `INSERT INTO canonical_session_calendars (
    venue, session_date, is_open, session_start, session_end, timezone, source_provider
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (venue, session_date) DO UPDATE SET
    is_open = EXCLUDED.is_open,
    session_start = EXCLUDED.session_start,
    session_end = EXCLUDED.session_end,
    timezone = EXCLUDED.timezone,
    source_provider = EXCLUDED.source_provider`
		_, err := session.ExecCtx(ctx, q,
			data.Venue, data.SessionDate, data.IsOpen,
			data.SessionStart, data.SessionEnd, data.Timezone, data.SourceProvider)
		return err
	}

	const q = `INSERT OR REPLACE INTO canonical_session_calendars (
    venue, session_date, is_open, session_start, session_end, timezone, source_provider
) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := session.ExecCtx(ctx, q,
		data.Venue, data.SessionDate, data.IsOpen,
		data.SessionStart, data.SessionEnd, data.Timezone, data.SourceProvider)
	return err
}
