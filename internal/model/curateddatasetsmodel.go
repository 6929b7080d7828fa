package model

import (
	"context"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CuratedDatasetsModel = (*defaultCuratedDatasetsModel)(nil)

type (
	// CuratedDatasetsModel stamps dataset versions after successful ingestion.
	CuratedDatasetsModel interface {
		Upsert(ctx context.Context, session sqlx.Session, data *CuratedDataset) (int64, error)
		FindLatestVersion(ctx context.Context, session sqlx.Session, dataset string) (string, error)
	}

	CuratedDataset struct {
		DatasetName    string `db:"dataset_name"`
		DatasetVersion string `db:"dataset_version"`
		Status         string `db:"status"`
		Payload        string `db:"payload"`
	}

	defaultCuratedDatasetsModel struct {
		flavor Flavor
	}
)

// NewCuratedDatasetsModel returns a model for the curated_datasets table.
func NewCuratedDatasetsModel(flavor Flavor) CuratedDatasetsModel {
	return &defaultCuratedDatasetsModel{flavor: flavor}
}

func (m *defaultCuratedDatasetsModel) Upsert(ctx context.Context, session sqlx.Session, data *CuratedDataset) (int64, error) {
	if m.flavor == FlavorPostgres {
		const q = `INSERT INTO curated_datasets (dataset_name, dataset_version, status, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (dataset_name, dataset_version) DO UPDATE SET
    status = EXCLUDED.status,
    payload = EXCLUDED.payload
RETURNING id`
		var id int64
		if err := session.QueryRowCtx(ctx, &id, q,
			data.DatasetName, data.DatasetVersion, data.Status, data.Payload); err != nil {
			return 0, err
		}
		return id, nil
	}

	const q = `INSERT OR REPLACE INTO curated_datasets (dataset_name, dataset_version, status, payload)
VALUES (?, ?, ?, ?)`
	result, err := session.ExecCtx(ctx, q,
		data.DatasetName, data.DatasetVersion, data.Status, data.Payload)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (m *defaultCuratedDatasetsModel) FindLatestVersion(ctx context.Context, session sqlx.Session, dataset string) (string, error) {
	q := `SELECT dataset_version FROM curated_datasets WHERE dataset_name = $1 ORDER BY dataset_version DESC LIMIT 1`
	if m.flavor == FlavorSQLite {
		q = `SELECT dataset_version FROM curated_datasets WHERE dataset_name = ? ORDER BY dataset_version DESC LIMIT 1`
	}
	var version string
	if err := session.QueryRowCtx(ctx, &version, q, dataset); err != nil {
		return "", err
	}
	return version, nil
}
