package svc

import (
	"database/sql"
	"log"
	"time"

	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "apollo67-api/internal/cache"
	"apollo67-api/internal/config"
	"apollo67-api/internal/model"
	"apollo67-api/internal/repo"
	"apollo67-api/pkg/confkit"
	"apollo67-api/pkg/ingest"
	"apollo67-api/pkg/journal"
	"apollo67-api/pkg/marketdata"
	_ "apollo67-api/pkg/marketdata/providers/finnhub"
	"apollo67-api/pkg/marketdata/providers/stub"
	_ "apollo67-api/pkg/marketdata/providers/twelvedata"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig *marketdata.Config
	Providers    map[string]marketdata.Provider
	Primary      marketdata.Provider
	Fallback     marketdata.Provider

	Selector  *marketdata.Selector
	Metrics   *ingest.Metrics
	Validator *ingest.Validator
	Ingest    *ingest.Service

	DBConn sqlx.SqlConn
	Flavor model.Flavor
	Cache  gocache.Cache
	TTL    cachekeys.TTLSet
	Repos  *repo.Set
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cachekeys.NewTTLSet(c.TTL),
	}

	// Vendor adapters come from the market config file when present;
	// otherwise deterministic stubs keep the pipeline usable offline.
	providers := map[string]marketdata.Provider{}
	if c.Market.Value != nil {
		svc.MarketConfig = c.Market.Value
		built, err := c.Market.Value.BuildProviders()
		if err != nil {
			log.Fatalf("failed to build market providers: %v", err)
		}
		providers = built
	}
	if _, ok := providers[c.DataProviderPrimary]; !ok {
		providers[c.DataProviderPrimary] = stub.New(c.DataProviderPrimary)
	}
	if _, ok := providers[c.DataProviderFallback]; !ok {
		providers[c.DataProviderFallback] = stub.New(c.DataProviderFallback)
	}
	svc.Providers = providers
	svc.Primary = providers[c.DataProviderPrimary]
	svc.Fallback = providers[c.DataProviderFallback]

	freshness := time.Duration(c.Quality.FreshnessSLASeconds) * time.Second
	svc.Selector = marketdata.NewSelector(
		svc.Primary,
		svc.Fallback,
		marketdata.NewTTLCache(marketdata.DefaultCacheTTL),
		freshness,
	)

	svc.Metrics = ingest.NewMetrics()
	svc.Validator = ingest.NewValidator(
		ingest.Params{
			FreshnessSLA:         freshness,
			CompletenessMinRatio: c.Quality.CompletenessMinRatio,
		},
		ingest.DefaultChecks(c.Quality.DriftWarnRatio, c.Quality.SpikeWarnRatio),
		svc.Metrics,
	)

	conn, flavor, err := repo.OpenConn(c.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	svc.DBConn = conn
	svc.Flavor = flavor

	if c.Redis.Host != "" {
		cacheConf := gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}}
		svc.Cache = gocache.New(cacheConf, syncx.NewSingleFlight(), gocache.NewStat(cachekeys.Namespace), sql.ErrNoRows)
	}

	repos, err := repo.New(repo.Dependencies{
		DBConn: conn,
		Cache:  svc.Cache,
		TTL:    svc.TTL,

		RawPayloadsModel:               model.NewRawPayloadsModel(flavor),
		CanonicalInstrumentsModel:      model.NewCanonicalInstrumentsModel(flavor),
		CanonicalPriceBarsModel:        model.NewCanonicalPriceBarsModel(flavor),
		CanonicalCorporateActionsModel: model.NewCanonicalCorporateActionsModel(flavor),
		CanonicalSessionCalendarsModel: model.NewCanonicalSessionCalendarsModel(flavor),
		CuratedDatasetsModel:           model.NewCuratedDatasetsModel(flavor),
	})
	if err != nil {
		log.Fatalf("failed to build repositories: %v", err)
	}
	svc.Repos = repos

	journalDir := confkit.ResolvePath(c.BaseDir(), c.JournalDir)
	hierarchy := ingest.NewHierarchy(svc.Primary, svc.Fallback, svc.Metrics)
	svc.Ingest = ingest.NewService(hierarchy, repos.Ingestion, svc.Validator, svc.Metrics,
		ingest.WithJournal(journal.NewWriter(journalDir)))

	return svc
}
