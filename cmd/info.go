package cmd

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ListScenes prints the built-in scenes and the description files found in
// the scenes directory.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	scenes, err := scene.ListAllScenes(ctx.String("dir"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writeSceneList(&buf, scenes)
	logger.Noticef("available scenes\n%s", buf.String())
	return nil
}

// SceneInfo builds a scene and prints its geometry and BVH statistics.
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("missing scene file or built-in scene argument")
	}
	job, err := loaders.Resolve(ctx.Args().First(), 0, 0)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writeSceneStats(&buf, job.Scene)
	logger.Noticef("scene statistics for %s\n%s", ctx.Args().First(), buf.String())
	return nil
}

func writeSceneList(w io.Writer, scenes []scene.SceneInfo) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Type", "Name", "Description"})
	for _, info := range scenes {
		id := info.ID
		if info.FilePath != "" {
			id = info.FilePath
		}
		table.Append([]string{id, info.Type, info.Name, info.Description})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d", len(scenes))})
	table.Render()
}

func writeSceneStats(w io.Writer, s *scene.Scene) {
	bvh := s.BVHStats()
	bounds := s.BoundingBox()

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Statistic", "Value"})
	table.AppendBulk([][]string{
		{"Shapes", fmt.Sprintf("%d", len(s.Shapes))},
		{"Emitters", fmt.Sprintf("%d", len(s.Emitters))},
		{"Emitter area", fmt.Sprintf("%.4g", s.EmitterArea())},
		{"Bounds min", bounds.Min.String()},
		{"Bounds max", bounds.Max.String()},
		{"BVH nodes", fmt.Sprintf("%d", bvh.Nodes)},
		{"BVH leaves", fmt.Sprintf("%d", bvh.Leaves)},
		{"BVH depth", fmt.Sprintf("%d", bvh.MaxDepth)},
		{"BVH build time", bvh.BuildTime.Round(time.Microsecond).String()},
		{"Min depth", fmt.Sprintf("%d", s.Config.MinDepth)},
		{"Depth limit", fmt.Sprintf("%d", s.Config.DepthLimit)},
	})
	table.Render()
}
