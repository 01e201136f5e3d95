package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"GridOptimizer/internal/model"
)

// CSVFetcher reads candles from a file with columns timestamp,open,high,low,close.
// A header row is skipped. Timestamps are epoch milliseconds; values below 1e11 are
// taken as seconds.
type CSVFetcher struct {
	Path string
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchCandles(_ context.Context, _, _ string, limit int) ([]model.Candle, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	candles, err := parseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func parseCSV(r io.Reader) ([]model.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var candles []model.Candle
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: want 5 columns, got %d", line, len(rec))
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
		}
		if ts < 1e11 {
			ts *= 1000
		}
		var v [4]float64
		for k := 0; k < 4; k++ {
			if v[k], err = strconv.ParseFloat(strings.TrimSpace(rec[k+1]), 64); err != nil {
				return nil, fmt.Errorf("line %d: column %d: %w", line, k+2, err)
			}
		}
		candles = append(candles, model.Candle{Timestamp: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3]})
	}
	return candles, nil
}
