package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/df07/go-pathtracer/web/server"
	"github.com/urfave/cli"
)

// ServeFlags are the options accepted by the serve command
var ServeFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "addr",
		Value: "localhost:8080",
		Usage: "address to listen on",
	},
	cli.StringFlag{
		Name:  "dir, d",
		Value: "scenes",
		Usage: "directory of scene files that may be rendered",
	},
	cli.StringFlag{
		Name:  "static",
		Usage: "directory of a browser front end served at /",
	},
}

// Serve runs the preview server until interrupted.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := server.NewServer(ctx.String("addr"), ctx.String("dir"), ctx.String("static"))
	return s.Start(runCtx)
}
