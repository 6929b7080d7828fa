package model

import (
	"context"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CanonicalCorporateActionsModel = (*defaultCanonicalCorporateActionsModel)(nil)

type (
	// CanonicalCorporateActionsModel upserts corporate events by natural key.
	CanonicalCorporateActionsModel interface {
		Upsert(ctx context.Context, session sqlx.Session, data *CanonicalCorporateAction) error
	}

	CanonicalCorporateAction struct {
		InstrumentId   string  `db:"instrument_id"`
		ActionType     string  `db:"action_type"`
		EffectiveDate  string  `db:"effective_date"`
		FactorOrAmount float64 `db:"factor_or_amount"`
		SourceProvider string  `db:"source_provider"`
	}

	defaultCanonicalCorporateActionsModel struct {
		flavor Flavor
	}
)

// NewCanonicalCorporateActionsModel returns a model for the canonical_corporate_actions table.
func NewCanonicalCorporateActionsModel(flavor Flavor) CanonicalCorporateActionsModel {
	return &defaultCanonicalCorporateActionsModel{flavor: flavor}
}

func (m *defaultCanonicalCorporateActionsModel) Upsert(ctx context.Context, session sqlx.Session, data *CanonicalCorporateAction) error {
	if m.flavor == FlavorPostgres {
		const q = `INSERT INTO canonical_corporate_actions (
    instrument_id, action_type, effective_date, factor_or_amount, source_provider
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (instrument_id, action_type, effective_date) DO UPDATE SET
    factor_or_amount = EXCLUDED.factor_or_amount,
    source_provider = EXCLUDED.source_provider`
		_, err := session.ExecCtx(ctx, q,
			data.InstrumentId, data.ActionType, data.EffectiveDate,
			data.FactorOrAmount, data.SourceProvider)
		return err
	}

	const q = `INSERT OR REPLACE INTO canonical_corporate_actions (
    instrument_id, action_type, effective_date, factor_or_amount, source_provider
) VALUES (?, ?, ?, ?, ?)`
	_, err := session.ExecCtx(ctx, q,
		data.InstrumentId, data.ActionType, data.EffectiveDate,
		data.FactorOrAmount, data.SourceProvider)
	return err
}
