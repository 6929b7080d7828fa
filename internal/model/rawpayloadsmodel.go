package model

import (
	"context"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ RawPayloadsModel = (*defaultRawPayloadsModel)(nil)

type (
	// RawPayloadsModel writes verbatim provider payloads for audit.
	RawPayloadsModel interface {
		Insert(ctx context.Context, session sqlx.Session, data *RawPayload) (int64, error)
	}

	RawPayload struct {
		Id       int64  `db:"id"`
		Dataset  string `db:"dataset"`
		Provider string `db:"provider"`
		Payload  string `db:"payload"`
	}

	defaultRawPayloadsModel struct {
		flavor Flavor
	}
)

// NewRawPayloadsModel returns a model for the raw_payloads table.
func NewRawPayloadsModel(flavor Flavor) RawPayloadsModel {
	return &defaultRawPayloadsModel{flavor: flavor}
}

func (m *defaultRawPayloadsModel) Insert(ctx context.Context, session sqlx.Session, data *RawPayload) (int64, error) {
	if m.flavor == FlavorPostgres {
		const q = `INSERT INTO raw_payloads (dataset, provider, payload, captured_at)
VALUES ($1, $2, $3, NOW()) RETURNING id`
		var id int64
		if err := session.QueryRowCtx(ctx, &id, q, data.Dataset, data.Provider, data.Payload); err != nil {
			return 0, err
		}
		return id, nil
	}

	const q = `INSERT INTO raw_payloads (dataset, provider, payload, captured_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	result, err := session.ExecCtx(ctx, q, data.Dataset, data.Provider, data.Payload)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
