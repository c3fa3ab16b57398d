// Package charts renders collection statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Smooth     bool     // Smooth line (for line charts)
	Colors     []string // Fallback colors for points without one
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Smooth:     true,
		Colors:     []string{"#FFCB05", "#FF0000", "#0046BE", "#3BA272", "#9A60B4"},
	}
}

// DataPoint is one labelled value. Color is optional.
type DataPoint struct {
	Label string
	Value float64
	Color string
}

func (c ChartConfig) color(i int, point DataPoint) string {
	if point.Color != "" {
		return point.Color
	}
	if len(c.Colors) == 0 {
		return ""
	}
	return c.Colors[i%len(c.Colors)]
}

func (c ChartConfig) globalOptions(trigger string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  c.Width,
			Height: c.Height,
			Theme:  c.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: c.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: trigger,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(c.ShowLegend),
		}),
	}
}

// RenderPieChart writes a pie chart of data to w.
func RenderPieChart(w io.Writer, data []DataPoint, config ChartConfig) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(config.globalOptions("item")...)

	items := make([]opts.PieData, len(data))
	for i, point := range data {
		items[i] = opts.PieData{
			Name:      point.Label,
			Value:     point.Value,
			ItemStyle: &opts.ItemStyle{Color: config.color(i, point)},
		}
	}

	pie.AddSeries(config.Title, items).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
		)

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderBarChart writes a bar chart of data to w, one bar per point.
func RenderBarChart(w io.Writer, data []DataPoint, config ChartConfig) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(config.globalOptions("axis")...)

	labels := make([]string, len(data))
	values := make([]opts.BarData, len(data))
	for i, point := range data {
		labels[i] = point.Label
		values[i] = opts.BarData{
			Value:     point.Value,
			ItemStyle: &opts.ItemStyle{Color: config.color(i, point)},
		}
	}

	bar.SetXAxis(labels).
		AddSeries(config.Title, values).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderLineChart writes a single-series line chart to w.
func RenderLineChart(w io.Writer, data []DataPoint, seriesName string, config ChartConfig) error {
	line := charts.NewLine()
	line.SetGlobalOptions(config.globalOptions("axis")...)
	if len(config.Colors) > 0 {
		line.SetGlobalOptions(charts.WithColorsOpts(opts.Colors{config.Colors[0]}))
	}

	labels := make([]string, len(data))
	values := make([]opts.LineData, len(data))
	for i, point := range data {
		labels[i] = point.Label
		values[i] = opts.LineData{Value: point.Value}
	}

	line.SetXAxis(labels).
		AddSeries(seriesName, values).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(config.Smooth),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderToFile runs render against a newly created file at outputPath.
func RenderToFile(outputPath string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close chart file: %w", cerr)
		}
	}()

	return render(f)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
