package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CanonicalPriceBarsModel = (*defaultCanonicalPriceBarsModel)(nil)

type (
	// CanonicalPriceBarsModel upserts OHLCV bars by natural key.
	CanonicalPriceBarsModel interface {
		Upsert(ctx context.Context, session sqlx.Session, data *CanonicalPriceBar) error
	}

	CanonicalPriceBar struct {
		InstrumentId   string    `db:"instrument_id"`
		Timeframe      string    `db:"timeframe"`
		TsEvent        time.Time `db:"ts_event"`
		TsIngest       time.Time `db:"ts_ingest"`
		Open           float64   `db:"open"`
		High           float64   `db:"high"`
		Low            float64   `db:"low"`
		Close          float64   `db:"close"`
		Volume         float64   `db:"volume"`
		SourceProvider string    `db:"source_provider"`
		QualityFlags   []string  `db:"quality_flags"`
	}

	defaultCanonicalPriceBarsModel struct {
		flavor Flavor
	}
)

// NewCanonicalPriceBarsModel returns a model for the canonical_price_bars table.
func NewCanonicalPriceBarsModel(flavor Flavor) CanonicalPriceBarsModel {
	return &defaultCanonicalPriceBarsModel{flavor: flavor}
}

func (m *defaultCanonicalPriceBarsModel) Upsert(ctx context.Context, session sqlx.Session, data *CanonicalPriceBar) error {
	if m.flavor == FlavorPostgres {
		// quality_flags is text[] on postgres.
		const q = `INSERT INTO canonical_price_bars (
    instrument_id, timeframe, ts_event, ts_ingest,
    open, high, low, close, volume, source_provider, quality_flags
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (instrument_id, timeframe, ts_event) DO UPDATE SET
    ts_ingest = EXCLUDED.ts_ingest,
    open = EXCLUDED.open,
    high = EXCLUDED.high,
    low = EXCLUDED.low,
    close = EXCLUDED.close,
    volume = EXCLUDED.volume,
    source_provider = EXCLUDED.source_provider,
    quality_flags = EXCLUDED.quality_flags`
		_, err := session.ExecCtx(ctx, q,
			data.InstrumentId, data.Timeframe, data.TsEvent, data.TsIngest,
			data.Open, data.High, data.Low, data.Close, data.Volume,
			data.SourceProvider, pq.Array(data.QualityFlags))
		return err
	}

	flags, err := json.Marshal(data.QualityFlags)
	if err != nil {
		return err
	}
	const q = `INSERT OR REPLACE INTO canonical_price_bars (
    instrument_id, timeframe, ts_event, ts_ingest,
    open, high, low, close, volume, source_provider, quality_flags
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = session.ExecCtx(ctx, q,
		data.InstrumentId, data.Timeframe, data.TsEvent, data.TsIngest,
		data.Open, data.High, data.Low, data.Close, data.Volume,
		data.SourceProvider, string(flags))
	return err
}
