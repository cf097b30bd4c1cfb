package chart

import (
	"bytes"
	"fmt"
	"sync"

	"binance-price-monitor/internal/types"
	"binance-price-monitor/lib/helpers"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	Width  = 1200
	Height = 600
)

// ErrNotEnoughData is returned when the history cannot span a chart
var ErrNotEnoughData = errors.New("not enough price points to draw a chart")

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	gridColor       = drawing.Color{R: 100, G: 100, B: 100, A: 128}
	seriesColor     = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	fillColor       = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

var (
	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = truetype.Parse(goregular.TTF)
	})
	return font, fontErr
}

// Render draws the polled prices of symbol as a dark themed PNG line chart
func Render(symbol string, points []types.PricePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrNotEnoughData
	}

	f, err := loadFont()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse chart font")
	}

	series := chart.TimeSeries{
		Name: symbol,
		Style: chart.Style{
			StrokeColor: seriesColor,
			StrokeWidth: 2,
			FillColor:   fillColor,
		},
	}
	for _, p := range points {
		series.XValues = append(series.XValues, p.Timestamp)
		series.YValues = append(series.YValues, p.Price)
	}

	first, last := series.XValues[0], series.XValues[len(series.XValues)-1]
	if !last.After(first) {
		return nil, ErrNotEnoughData
	}

	minPrice, maxPrice := getMinMax(series.YValues)
	padding := (maxPrice - minPrice) * 0.1
	if padding == 0 {
		padding = maxPrice * 0.01
	}

	axisStyle := chart.Style{FontColor: textColor, StrokeColor: textColor, FontSize: 12}
	graph := chart.Chart{
		Title:      fmt.Sprintf("%s price", symbol),
		TitleStyle: chart.Style{FontColor: textColor, FontSize: 16},
		Width:      Width,
		Height:     Height,
		Font:       f,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: minPrice - padding, Max: maxPrice + padding},
			ValueFormatter: func(v interface{}) string {
				if price, ok := v.(float64); ok {
					return helpers.FormatPriceUS(decimal.NewFromFloat(price))
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrapf(err, "could not render chart for %s", symbol)
	}
	return buf.Bytes(), nil
}

func getMinMax(prices []float64) (min, max float64) {
	min, max = prices[0], prices[0]
	for _, price := range prices {
		if price < min {
			min = price
		}
		if price > max {
			max = price
		}
	}
	return min, max
}
