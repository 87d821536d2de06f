package analytics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

// conversionCeiling fixes the y-axis upper bound on conversion charts.
const conversionCeiling = 5.0

func renderConversionBar(title string, rate float64) ([]byte, error) {
	graph := chart.BarChart{
		Title:    title,
		Width:    640,
		Height:   400,
		BarWidth: 80,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: conversionCeiling},
		},
		Bars: []chart.Value{
			{Value: rate, Label: "Conversion"},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render conversion chart: %w", err)
	}
	return buf.Bytes(), nil
}

func renderForecastChart(title string, series *ForecastSeries) ([]byte, error) {
	ceiling := 1.0
	for _, v := range series.Revenue {
		ceiling = max(ceiling, v)
	}
	for _, v := range series.Projection {
		ceiling = max(ceiling, v)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Revenue ($)",
			// A flat series has a zero value delta, which go-chart rejects.
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling * 1.1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Historical Data",
				XValues: series.Dates,
				YValues: series.Revenue,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					DotColor:    chart.ColorBlue,
					DotWidth:    3,
				},
			},
			chart.TimeSeries{
				Name:    "7-day Forecast",
				XValues: series.Forecast,
				YValues: series.Projection,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeDashArray: []float64{5.0, 5.0},
					DotColor:        chart.ColorRed,
					DotWidth:        3,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render forecast chart: %w", err)
	}
	return buf.Bytes(), nil
}

func renderTrendChart(title string, points []TrendPoint) ([]byte, error) {
	// A line needs two points; a single dated bucket renders as one bar.
	if len(points) == 1 {
		graph := chart.BarChart{
			Title:    title,
			Width:    640,
			Height:   400,
			BarWidth: 80,
			YAxis: chart.YAxis{
				Range: &chart.ContinuousRange{Min: 0, Max: float64(points[0].Installs) + 1},
			},
			Bars: []chart.Value{
				{Value: float64(points[0].Installs), Label: points[0].Date.Format(dateLayout)},
			},
		}
		var buf bytes.Buffer
		if err := graph.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render trend chart: %w", err)
		}
		return buf.Bytes(), nil
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	peak := 1.0
	for i, p := range points {
		xs[i] = p.Date
		ys[i] = float64(p.Installs)
		peak = max(peak, ys[i])
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Installs",
			Range: &chart.ContinuousRange{Min: 0, Max: peak + 1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Installs",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					DotColor:    chart.ColorBlue,
					DotWidth:    3,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}
