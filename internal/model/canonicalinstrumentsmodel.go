package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CanonicalInstrumentsModel = (*defaultCanonicalInstrumentsModel)(nil)

type (
	// CanonicalInstrumentsModel upserts instrument reference records.
	CanonicalInstrumentsModel interface {
		Upsert(ctx context.Context, session sqlx.Session, data *CanonicalInstrument) error
	}

	CanonicalInstrument struct {
		InstrumentId   string       `db:"instrument_id"`
		Symbol         string       `db:"symbol"`
		Venue          string       `db:"venue"`
		AssetType      string       `db:"asset_type"`
		Currency       string       `db:"currency"`
		IsTradable     bool         `db:"is_tradable"`
		EffectiveFrom  time.Time    `db:"effective_from"`
		EffectiveTo    sql.NullTime `db:"effective_to"`
		SourceProvider string       `db:"source_provider"`
	}

	defaultCanonicalInstrumentsModel struct {
		flavor Flavor
	}
)

// NewCanonicalInstrumentsModel returns a model for the canonical_instruments table.
func NewCanonicalInstrumentsModel(flavor Flavor) CanonicalInstrumentsModel {
	return &defaultCanonicalInstrumentsModel{flavor: flavor}
}

func (m *defaultCanonicalInstrumentsModel) Upsert(ctx context.Context, session sqlx.Session, data *CanonicalInstrument) error {
	if m.flavor == FlavorPostgres {
		const q = `INSERT INTO canonical_instruments (
    instrument_id, symbol, venue, asset_type, currency,
    is_tradable, effective_from, effective_to, source_provider
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (instrument_id) DO UPDATE SET
    symbol = EXCLUDED.symbol,
    venue = EXCLUDED.venue,
    asset_type = EXCLUDED.asset_type,
    currency = EXCLUDED.currency,
    is_tradable = EXCLUDED.is_tradable,
    effective_from = EXCLUDED.effective_from,
    effective_to = EXCLUDED.effective_to,
    source_provider = EXCLUDED.source_provider`
		_, err := session.ExecCtx(ctx, q,
			data.InstrumentId, data.Symbol, data.Venue, data.AssetType, data.Currency,
			data.IsTradable, data.EffectiveFrom, data.EffectiveTo, data.SourceProvider)
		return err
	}

	const q = `INSERT OR REPLACE INTO canonical_instruments (
    instrument_id, symbol, venue, asset_type, currency,
    is_tradable, effective_from, effective_to, source_provider
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := session.ExecCtx(ctx, q,
		data.InstrumentId, data.Symbol, data.Venue, data.AssetType, data.Currency,
		data.IsTradable, data.EffectiveFrom, data.EffectiveTo, data.SourceProvider)
	return err
}
