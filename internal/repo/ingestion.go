package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"apollo67-api/internal/model"
	"apollo67-api/pkg/ingest"
	"apollo67-api/pkg/marketdata"
)

var _ ingest.Repository = (*IngestionRepo)(nil)

// IngestionRepo is the SQL-backed persistence layer for the ingestion
// pipeline. Every mutating call runs inside its own transaction scope:
// committed on success, rolled back on any error.
type IngestionRepo struct {
	conn      sqlx.SqlConn
	raw       model.RawPayloadsModel
	instr     model.CanonicalInstrumentsModel
	bars      model.CanonicalPriceBarsModel
	actions   model.CanonicalCorporateActionsModel
	calendars model.CanonicalSessionCalendarsModel
	curated   model.CuratedDatasetsModel
}

func newIngestionRepo(deps Dependencies) *IngestionRepo {
	return &IngestionRepo{
		conn:      deps.DBConn,
		raw:       deps.RawPayloadsModel,
		instr:     deps.CanonicalInstrumentsModel,
		bars:      deps.CanonicalPriceBarsModel,
		actions:   deps.CanonicalCorporateActionsModel,
		calendars: deps.CanonicalSessionCalendarsModel,
		curated:   deps.CuratedDatasetsModel,
	}
}

// Ping verifies database connectivity.
func (r *IngestionRepo) Ping(ctx context.Context) error {
	var one int
	return r.conn.QueryRowCtx(ctx, &one, "SELECT 1")
}

func (r *IngestionRepo) CaptureRawPayload(ctx context.Context, dataset, provider string, payload []json.RawMessage) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode raw payload: %w", err)
	}

	var id int64
	err = r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		id, err = r.raw.Insert(ctx, session, &model.RawPayload{
			Dataset:  dataset,
			Provider: provider,
			Payload:  string(body),
		})
		return err
	})
	return id, err
}

func (r *IngestionRepo) PersistInstruments(ctx context.Context, records []marketdata.Instrument) (int, error) {
	count := 0
	err := r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, item := range records {
			row := &model.CanonicalInstrument{
				InstrumentId:   item.InstrumentID,
				Symbol:         item.Symbol,
				Venue:          item.Venue,
				AssetType:      item.AssetType,
				Currency:       item.Currency,
				IsTradable:     item.IsTradable,
				EffectiveFrom:  item.EffectiveFrom,
				SourceProvider: item.SourceProvider,
			}
			if item.EffectiveTo != nil {
				row.EffectiveTo = sql.NullTime{Time: *item.EffectiveTo, Valid: true}
			}
			if err := r.instr.Upsert(ctx, session, row); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IngestionRepo) PersistPriceBars(ctx context.Context, records []marketdata.Bar) (int, error) {
	count := 0
	err := r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, item := range records {
			row := &model.CanonicalPriceBar{
				InstrumentId:   item.InstrumentID,
				Timeframe:      item.Timeframe,
				TsEvent:        item.TsEvent,
				TsIngest:       item.TsIngest,
				Open:           item.Open,
				High:           item.High,
				Low:            item.Low,
				Close:          item.Close,
				Volume:         item.Volume,
				SourceProvider: item.SourceProvider,
				QualityFlags:   item.QualityFlags,
			}
			if err := r.bars.Upsert(ctx, session, row); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IngestionRepo) PersistCorporateActions(ctx context.Context, records []marketdata.CorporateAction) (int, error) {
	count := 0
	err := r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, item := range records {
			row := &model.CanonicalCorporateAction{
				InstrumentId:   item.InstrumentID,
				ActionType:     item.ActionType,
				EffectiveDate:  item.EffectiveDate,
				FactorOrAmount: item.FactorOrAmount,
				SourceProvider: item.SourceProvider,
			}
			if err := r.actions.Upsert(ctx, session, row); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IngestionRepo) PersistSessionCalendars(ctx context.Context, records []marketdata.SessionCalendar) (int, error) {
	count := 0
	err := r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, item := range records {
			row := &model.CanonicalSessionCalendar{
				Venue:          item.Venue,
				SessionDate:    item.SessionDate,
				IsOpen:         item.IsOpen,
				SessionStart:   item.SessionStart,
				SessionEnd:     item.SessionEnd,
				Timezone:       item.Timezone,
				SourceProvider: item.SourceProvider,
			}
			if err := r.calendars.Upsert(ctx, session, row); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IngestionRepo) MarkCuratedDataset(ctx context.Context, name, version, status string, payload map[string]any) (int64, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode curated payload: %w", err)
	}

	var id int64
	err = r.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		id, err = r.curated.Upsert(ctx, session, &model.CuratedDataset{
			DatasetName:    name,
			DatasetVersion: version,
			Status:         status,
			Payload:        string(body),
		})
		return err
	})
	return id, err
}

// LatestCuratedVersion returns the newest version stamp recorded for a
// dataset, or empty string when none exists yet.
func (r *IngestionRepo) LatestCuratedVersion(ctx context.Context, dataset string) (string, error) {
	version, err := r.curated.FindLatestVersion(ctx, r.conn, dataset)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return version, nil
}
