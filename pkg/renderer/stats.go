package renderer

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/olekukonko/tablewriter"
)

// StopReason records why a render ended
type StopReason string

const (
	StopSamples   StopReason = "samples reached"
	StopTimeLimit StopReason = "time limit"
	StopCancelled StopReason = "cancelled"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width, Height   int
	Workers         int
	Tiles           int // tiles per pass
	Passes          int
	SamplesPerPixel int // samples accumulated by every pixel
	TotalSamples    int
	Discarded       int // non-finite estimates counted as black
	Elapsed         time.Duration
	StopReason      StopReason
}

// SamplesPerSecond is the overall sampling throughput
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}

// Table renders the statistics as a two column text table
func (s RenderStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Statistic", "Value"})
	table.AppendBulk([][]string{
		{"Resolution", fmt.Sprintf("%dx%d", s.Width, s.Height)},
		{"Workers", fmt.Sprintf("%d", s.Workers)},
		{"Tiles per pass", fmt.Sprintf("%d", s.Tiles)},
		{"Passes", fmt.Sprintf("%d", s.Passes)},
		{"Samples per pixel", fmt.Sprintf("%d", s.SamplesPerPixel)},
		{"Total samples", fmt.Sprintf("%d", s.TotalSamples)},
		{"Discarded samples", fmt.Sprintf("%d", s.Discarded)},
		{"Samples per second", fmt.Sprintf("%.0f", s.SamplesPerSecond())},
		{"Render time", s.Elapsed.Round(time.Millisecond).String()},
		{"Stopped by", string(s.StopReason)},
	})
	table.Render()
	return buf.String()
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// Merge folds another accumulator for the same pixel into ps
func (ps *PixelStats) Merge(other PixelStats) {
	ps.ColorAccum = ps.ColorAccum.Add(other.ColorAccum)
	ps.LuminanceAccum += other.LuminanceAccum
	ps.LuminanceSqAccum += other.LuminanceSqAccum
	ps.SampleCount += other.SampleCount
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Variance returns the sample variance of the pixel's luminance
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.LuminanceAccum / n
	return math.Max(0, (ps.LuminanceSqAccum/n-mean*mean)*n/(n-1))
}
