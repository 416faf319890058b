package main

import (
	"os"

	"github.com/df07/go-pathtracer/cmd"
	"github.com/df07/go-pathtracer/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("pathtracer")

func newApp() *cli.App {
	// -v selects verbose logging, so --version gets no short form
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-pathtracer"
	app.Usage = "render scenes with progressive Monte Carlo path tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene to an image",
			Description: `
Render a TOML scene description or a built-in scene. Passes of a few samples
per pixel are added until the sample count or the time limit is reached, and
the image is rewritten at every checkpoint. Interrupting the render keeps the
samples gathered so far.`,
			ArgsUsage: "scene.toml | builtin-id",
			Flags:     cmd.RenderFlags,
			Action:    cmd.RenderScene,
		},
		{
			Name:      "info",
			Usage:     "print geometry and BVH statistics of a scene",
			ArgsUsage: "scene.toml | builtin-id",
			Action:    cmd.SceneInfo,
		},
		{
			Name:  "list",
			Usage: "list built-in scenes and scene files",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir, d",
					Value: "scenes",
					Usage: "directory searched for *.toml scene files",
				},
			},
			Action: cmd.ListScenes,
		},
		{
			Name:  "serve",
			Usage: "stream progressive renders to a browser",
			Description: `
Serve an HTTP API that renders built-in scenes and the scene files of a
directory, streaming every pass as a server-sent event.`,
			Flags:  cmd.ServeFlags,
			Action: cmd.Serve,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
