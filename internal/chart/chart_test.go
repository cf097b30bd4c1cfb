package chart

import (
	"bytes"
	"testing"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/pkg/errors"
)

func TestRender(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var points []types.PricePoint
	for i, p := range []float64{67000, 67250.5, 66900, 68100, 69000} {
		points = append(points, types.PricePoint{Price: p, Timestamp: start.Add(time.Duration(i) * 30 * time.Second)})
	}

	png, err := Render("BTCUSDT", points)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG")
	}
}

func TestRender_FlatPrices(t *testing.T) {
	start := time.Now()
	points := []types.PricePoint{
		{Price: 1, Timestamp: start},
		{Price: 1, Timestamp: start.Add(time.Minute)},
	}
	if _, err := Render("USDCUSDT", points); err != nil {
		t.Errorf("flat series should render: %v", err)
	}
}

func TestRender_NotEnoughData(t *testing.T) {
	now := time.Now()
	tests := [][]types.PricePoint{
		nil,
		{{Price: 1, Timestamp: now}},
		{{Price: 1, Timestamp: now}, {Price: 2, Timestamp: now}},
	}
	for _, points := range tests {
		if _, err := Render("BTCUSDT", points); !errors.Is(err, ErrNotEnoughData) {
			t.Errorf("Render(%d points) = %v, want ErrNotEnoughData", len(points), err)
		}
	}
}
