package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"
)

// RenderFlags are the options accepted by the render command
var RenderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Usage: "frame width, overrides the scene",
	},
	cli.IntFlag{
		Name:  "height",
		Usage: "frame height, overrides the scene",
	},
	cli.IntFlag{
		Name:  "samples, s",
		Usage: "samples per pixel, 0 renders until the time limit",
	},
	cli.IntFlag{
		Name:  "threads, t",
		Usage: "worker goroutines (default: number of CPUs)",
	},
	cli.DurationFlag{
		Name:  "time-limit",
		Usage: "stop after the pass running when this much time has elapsed",
	},
	cli.StringFlag{
		Name:  "integrator, i",
		Usage: fmt.Sprintf("light transport estimator, one of %v", integrator.Names()),
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "image file (.png, .tiff or .bmp) for the rendered frame",
	},
	cli.DurationFlag{
		Name:  "checkpoint",
		Value: renderer.DefaultCheckpointInterval,
		Usage: "write the image at most this often while rendering, 0 to write only when done",
	},
	cli.Int64Flag{
		Name:  "seed",
		Usage: "base seed of the per-tile samplers",
	},
}

// RenderScene renders a description file or built-in scene to an image.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file or built-in scene argument")
	}
	arg := ctx.Args().First()

	job, err := loaders.Resolve(arg, ctx.Int("width"), ctx.Int("height"))
	if err != nil {
		return err
	}
	opts := applyRenderFlags(ctx, job.Options)
	if opts.Output == "" {
		opts.Output = defaultOutputPath(arg, time.Now())
	}

	integ, err := integrator.New(opts.Integrator, job.Scene)
	if err != nil {
		return err
	}

	config := renderer.DefaultProgressiveConfig(opts.Width, opts.Height)
	config.SamplesPerPixel = opts.Samples
	config.NumWorkers = opts.Threads
	config.TimeLimit = opts.TimeLimit
	config.CheckpointInterval = ctx.Duration("checkpoint")
	config.Seed = opts.Seed

	r, err := renderer.NewProgressiveRenderer(job.Camera, integ, config)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Noticef("rendering %s at %dx%d with %q to %s", arg, opts.Width, opts.Height, opts.Integrator, opts.Output)
	stats, err := r.Render(runCtx, func(film *renderer.Film, stats renderer.RenderStats) error {
		if err := renderer.SaveFilm(opts.Output, film, opts.Gamma, opts.Sensitivity); err != nil {
			return err
		}
		logger.Infof("wrote %s (%d samples per pixel)", opts.Output, stats.SamplesPerPixel)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		logger.Warningf("render interrupted; %s holds %d samples per pixel", opts.Output, stats.SamplesPerPixel)
		err = nil
	}
	if err != nil {
		return err
	}

	logger.Noticef("render statistics\n%s", stats.Table())
	return nil
}

// applyRenderFlags overrides description settings with explicitly set flags
func applyRenderFlags(ctx *cli.Context, opts loaders.Options) loaders.Options {
	if ctx.IsSet("samples") {
		opts.Samples = ctx.Int("samples")
	}
	if ctx.IsSet("threads") {
		opts.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("time-limit") {
		opts.TimeLimit = ctx.Duration("time-limit")
	}
	if ctx.IsSet("integrator") {
		opts.Integrator = ctx.String("integrator")
	}
	if ctx.IsSet("out") {
		out, err := homedir.Expand(ctx.String("out"))
		if err != nil {
			out = ctx.String("out")
		}
		opts.Output = out
	}
	if ctx.IsSet("seed") {
		opts.Seed = ctx.Int64("seed")
	}
	return opts
}

// defaultOutputPath places renders under output/<scene>/render_<timestamp>.png
func defaultOutputPath(arg string, now time.Time) string {
	return filepath.Join("output", sceneName(arg), fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

func sceneName(ref string) string {
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
