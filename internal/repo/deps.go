package repo

import (
	"errors"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "apollo67-api/internal/cache"
	"apollo67-api/internal/model"
)

// Dependencies bundles the table models and shared infrastructure required
// by repository implementations.
type Dependencies struct {
	DBConn sqlx.SqlConn
	Cache  cache.Cache
	TTL    cachekeys.TTLSet

	RawPayloadsModel               model.RawPayloadsModel
	CanonicalInstrumentsModel      model.CanonicalInstrumentsModel
	CanonicalPriceBarsModel        model.CanonicalPriceBarsModel
	CanonicalCorporateActionsModel model.CanonicalCorporateActionsModel
	CanonicalSessionCalendarsModel model.CanonicalSessionCalendarsModel
	CuratedDatasetsModel           model.CuratedDatasetsModel
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Ingestion *IngestionRepo
	Quotes    *QuoteCacheRepo
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.DBConn == nil {
		return nil, errors.New("repo: missing DBConn dependency")
	}

	return &Set{
		Ingestion: newIngestionRepo(deps),
		Quotes:    newQuoteCacheRepo(deps),
	}, nil
}
