package renderer

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile    *Tile
	Pass    int
	Samples int // samples to take per pixel
}

// TileResult carries the samples a worker accumulated for one tile
type TileResult struct {
	TileID    int
	Pass      int
	Bounds    image.Rectangle
	Pixels    []PixelStats // row-major within Bounds
	Samples   int
	Discarded int
}

// WorkerPool renders tiles in parallel. Workers never touch the film: each
// tile is accumulated into its own buffer and handed back on a channel.
type WorkerPool struct {
	camera     Camera
	integrator integrator.Integrator
	numWorkers int
	seed       int64
}

// NewWorkerPool creates a pool; numWorkers <= 0 uses one worker per CPU
func NewWorkerPool(camera Camera, integrator integrator.Integrator, numWorkers int, seed int64) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		camera:     camera,
		integrator: integrator,
		numWorkers: numWorkers,
		seed:       seed,
	}
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// RenderPass renders every tile once with the given samples per pixel and
// sends each result on results. It returns once all workers have exited.
func (wp *WorkerPool) RenderPass(ctx context.Context, pass, samples int, tiles []*Tile, results chan<- TileResult) error {
	g, ctx := errgroup.WithContext(ctx)
	tasks := make(chan TileTask)

	g.Go(func() error {
		defer close(tasks)
		for _, tile := range tiles {
			select {
			case tasks <- TileTask{Tile: tile, Pass: pass, Samples: samples}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < wp.numWorkers; i++ {
		g.Go(func() error {
			for task := range tasks {
				result, err := wp.renderTile(task)
				if err != nil {
					return err
				}
				select {
				case results <- result:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// renderTile accumulates task.Samples estimates for every pixel of the tile.
// Non-finite estimates are recorded as black and counted.
func (wp *WorkerPool) renderTile(task TileTask) (result TileResult, err error) {
	bounds := task.Tile.Bounds
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tile %d pass %d: %v", task.Tile.ID, task.Pass, r)
		}
	}()

	sampler := core.NewSeededSampler(tileSeed(wp.seed, task.Pass, task.Tile.ID))
	result = TileResult{
		TileID: task.Tile.ID,
		Pass:   task.Pass,
		Bounds: bounds,
		Pixels: make([]PixelStats, bounds.Dx()*bounds.Dy()),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ps := &result.Pixels[i]
			for s := 0; s < task.Samples; s++ {
				ray := wp.camera.GetRay(x, y, sampler)
				radiance := wp.integrator.Radiance(ray, sampler)
				if !radiance.IsFinite() {
					radiance = core.Vec3{}
					result.Discarded++
				}
				ps.AddSample(radiance)
			}
			result.Samples += task.Samples
			i++
		}
	}
	return result, nil
}

// tileSeed mixes the render seed with the pass and tile so every tile of
// every pass draws an independent, reproducible stream (splitmix64 finalizer).
func tileSeed(seed int64, pass, tile int) int64 {
	z := uint64(seed) + uint64(pass)*0x9e3779b97f4a7c15 + uint64(tile)*0xbf58476d1ce4e5b9
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
