package stub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apollo67-api/pkg/marketdata"
)

func TestStub_QuoteAndBarsAreWellFormed(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	p := New("stub_primary").Configure(WithClock(func() time.Time { return now }))

	quote, err := p.FetchQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "A67.AAPL", quote.InstrumentID)
	assert.NoError(t, marketdata.ValidateQuoteAt(*quote, time.Minute, now))

	bars, err := p.FetchBars(context.Background(), "AAPL", "1day", 25)
	require.NoError(t, err)
	assert.Len(t, bars, 25)
	assert.NoError(t, marketdata.ValidateBars(bars))
	assert.True(t, bars[0].TsEvent.Before(bars[1].TsEvent), "bars are oldest first")
}

func TestStub_EveryDatasetServes(t *testing.T) {
	p := New("stub_primary")
	for _, dataset := range []string{
		marketdata.DatasetInstrument,
		marketdata.DatasetPriceBar,
		marketdata.DatasetCorporateAction,
		marketdata.DatasetSessionCalendar,
	} {
		result, err := p.FetchDataset(context.Background(), dataset)
		require.NoError(t, err, "dataset %s", dataset)
		assert.Equal(t, dataset, result.Dataset)
		assert.NotEmpty(t, result.Records)
		assert.Equal(t, stubLatencyMS, result.LatencyMS)
	}
}

func TestStub_FailDatasetsRefuseWithUnavailable(t *testing.T) {
	p := New("stub_primary", marketdata.DatasetPriceBar)

	_, err := p.FetchDataset(context.Background(), marketdata.DatasetPriceBar)
	require.Error(t, err)
	assert.True(t, errors.Is(err, marketdata.ErrProviderUnavailable))
	var perr *marketdata.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Transient)

	// other datasets remain unaffected
	_, err = p.FetchDataset(context.Background(), marketdata.DatasetInstrument)
	assert.NoError(t, err)
}
