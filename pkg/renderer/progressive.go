package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/log"
)

var logger = log.New("renderer")

// Renderer defaults
const (
	DefaultTileSize           = 32
	DefaultSamplesPerPass     = 4
	DefaultCheckpointInterval = 10 * time.Second
	DefaultTimeLimit          = time.Duration(0) // unlimited
)

// ErrNoStopCondition is returned for a render that would never end on its own
var ErrNoStopCondition = errors.New("renderer: either a sample count or a time limit is required")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	Width, Height      int
	SamplesPerPixel    int           // total samples per pixel; 0 renders until TimeLimit
	SamplesPerPass     int           // samples added to every pixel per pass
	NumWorkers         int           // 0 = use CPU count
	TileSize           int           // edge length of the square tiles
	TimeLimit          time.Duration // 0 = no limit
	CheckpointInterval time.Duration // 0 = checkpoint only when done
	Seed               int64
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig(width, height int) ProgressiveConfig {
	return ProgressiveConfig{
		Width:              width,
		Height:             height,
		SamplesPerPixel:    64,
		SamplesPerPass:     DefaultSamplesPerPass,
		TileSize:           DefaultTileSize,
		TimeLimit:          DefaultTimeLimit,
		CheckpointInterval: DefaultCheckpointInterval,
		Seed:               42,
	}
}

// Validate fills zero values with defaults and rejects unusable settings
func (c *ProgressiveConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 && c.TimeLimit <= 0 {
		return ErrNoStopCondition
	}
	if c.SamplesPerPass <= 0 {
		c.SamplesPerPass = DefaultSamplesPerPass
	}
	if c.TileSize <= 0 {
		c.TileSize = DefaultTileSize
	}
	return nil
}

// CheckpointFunc receives the film between passes and once when rendering
// ends. It runs on the reducer goroutine, so reading the film is safe.
type CheckpointFunc func(film *Film, stats RenderStats) error

// ProgressiveRenderer runs sampling passes over the whole image until the
// sample count, the time limit or the context ends the render.
type ProgressiveRenderer struct {
	config     ProgressiveConfig
	tiles      []*Tile
	film       *Film
	workerPool *WorkerPool
}

// NewProgressiveRenderer creates a renderer for camera and integrator
func NewProgressiveRenderer(camera Camera, integrator integrator.Integrator, config ProgressiveConfig) (*ProgressiveRenderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ProgressiveRenderer{
		config:     config,
		tiles:      NewTileGrid(config.Width, config.Height, config.TileSize),
		film:       NewFilm(config.Width, config.Height),
		workerPool: NewWorkerPool(camera, integrator, config.NumWorkers, config.Seed),
	}, nil
}

// Film returns the accumulation buffer. Only read it from a checkpoint or
// after Render returns.
func (pr *ProgressiveRenderer) Film() *Film {
	return pr.film
}

// samplesForPass returns how many samples the next pass adds, 0 when done
func (pr *ProgressiveRenderer) samplesForPass(done int) int {
	if pr.config.SamplesPerPixel <= 0 {
		return pr.config.SamplesPerPass
	}
	return min(pr.config.SamplesPerPass, pr.config.SamplesPerPixel-done)
}

// Render runs passes until done. Cancellation and the time limit are checked
// between passes only; a running pass always completes so every pixel keeps
// the same sample count. checkpoint may be nil.
func (pr *ProgressiveRenderer) Render(ctx context.Context, checkpoint CheckpointFunc) (RenderStats, error) {
	start := time.Now()
	lastCheckpoint := start
	stats := RenderStats{
		Width:   pr.config.Width,
		Height:  pr.config.Height,
		Workers: pr.workerPool.NumWorkers(),
		Tiles:   len(pr.tiles),
	}

	logger.Infof("rendering %dx%d with %d workers, %d tiles per pass",
		stats.Width, stats.Height, stats.Workers, stats.Tiles)

	var renderErr error
	for {
		if err := ctx.Err(); err != nil {
			stats.StopReason = StopCancelled
			renderErr = err
			break
		}
		samples := pr.samplesForPass(stats.SamplesPerPixel)
		if samples <= 0 {
			stats.StopReason = StopSamples
			break
		}
		if stats.Passes > 0 && pr.config.TimeLimit > 0 && time.Since(start) >= pr.config.TimeLimit {
			stats.StopReason = StopTimeLimit
			break
		}

		passStart := time.Now()
		if err := pr.renderPass(ctx, stats.Passes+1, samples, &stats); err != nil {
			return stats, err
		}
		stats.Passes++
		stats.SamplesPerPixel += samples
		stats.Elapsed = time.Since(start)
		logger.Infof("pass %d done in %v (%d samples per pixel)", stats.Passes, time.Since(passStart), stats.SamplesPerPixel)

		if checkpoint != nil && pr.config.CheckpointInterval > 0 && time.Since(lastCheckpoint) >= pr.config.CheckpointInterval {
			if err := checkpoint(pr.film, stats); err != nil {
				return stats, fmt.Errorf("checkpoint after pass %d: %w", stats.Passes, err)
			}
			lastCheckpoint = time.Now()
		}
	}

	stats.Elapsed = time.Since(start)
	if stats.Discarded > 0 {
		logger.Warningf("%d non-finite samples were recorded as black", stats.Discarded)
	}
	logger.Noticef("render finished after %d passes in %v: %s", stats.Passes, stats.Elapsed.Round(time.Millisecond), stats.StopReason)

	if checkpoint != nil && stats.Passes > 0 {
		if err := checkpoint(pr.film, stats); err != nil {
			return stats, fmt.Errorf("final checkpoint: %w", err)
		}
	}
	return stats, renderErr
}

// renderPass fans tiles out to the worker pool and reduces the results into
// the film on the calling goroutine, the film's only writer.
func (pr *ProgressiveRenderer) renderPass(ctx context.Context, pass, samples int, stats *RenderStats) error {
	results := make(chan TileResult, len(pr.tiles))
	errc := make(chan error, 1)

	go func() {
		defer close(results)
		errc <- pr.workerPool.RenderPass(context.WithoutCancel(ctx), pass, samples, pr.tiles, results)
	}()

	var mergeErr error
	for result := range results {
		if mergeErr != nil {
			continue
		}
		if err := pr.film.AddTile(result); err != nil {
			mergeErr = err
			continue
		}
		pr.tiles[result.TileID].PassesCompleted++
		stats.TotalSamples += result.Samples
		stats.Discarded += result.Discarded
	}

	if err := <-errc; err != nil {
		return fmt.Errorf("pass %d: %w", pass, err)
	}
	return mergeErr
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // index into the tile grid
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	// Calculate number of tiles in each dimension
	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}
