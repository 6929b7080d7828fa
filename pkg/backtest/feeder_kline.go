package backtest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// CSVCloseFeeder reads a CSV of daily bars and replays the close column.
// The last column of each row is taken as the close; a non-numeric first
// row is treated as a header and skipped.
type CSVCloseFeeder struct {
	symbol string
	closes []float64
	idx    int
}

// NewCSVCloseFeederFromFile constructs a CSV feeder from a file path.
func NewCSVCloseFeederFromFile(symbol, path string) (*CSVCloseFeeder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewCSVCloseFeeder(symbol, f)
}

// NewCSVCloseFeeder constructs a CSV feeder from an io.Reader.
func NewCSVCloseFeeder(symbol string, r io.Reader) (*CSVCloseFeeder, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var closes []float64
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(rec[len(rec)-1], 64)
		if err != nil {
			continue // header or malformed row
		}
		closes = append(closes, v)
	}
	return &CSVCloseFeeder{symbol: symbol, closes: closes}, nil
}

func (f *CSVCloseFeeder) Next(ctx context.Context, symbol string) (float64, bool, error) {
	if f.idx >= len(f.closes) {
		return 0, false, nil
	}
	px := f.closes[f.idx]
	f.idx++
	return px, true, nil
}
