package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"slices"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene          string        `json:"scene"` // built-in id or scene file
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	Samples        int           `json:"samples"`        // samples per pixel
	SamplesPerPass int           `json:"samplesPerPass"` // samples added between updates
	Integrator     string        `json:"integrator"`
	TimeLimit      time.Duration `json:"timeLimit"`
}

// ProgressUpdate is sent after every pass
type ProgressUpdate struct {
	PassNumber      int    `json:"passNumber"`
	SamplesPerPixel int    `json:"samplesPerPixel"`
	TargetSamples   int    `json:"targetSamples"`
	ImageData       string `json:"imageData"` // Base64 encoded PNG
	ElapsedMs       int64  `json:"elapsedMs"`
}

// CompleteUpdate closes a successful render stream
type CompleteUpdate struct {
	Passes          int     `json:"passes"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	TotalSamples    int     `json:"totalSamples"`
	Discarded       int     `json:"discarded"`
	SamplesPerSec   float64 `json:"samplesPerSecond"`
	StopReason      string  `json:"stopReason"`
	ElapsedMs       int64   `json:"elapsedMs"`
}

// sseEvent is one server-sent event; all writes go through a single goroutine
type sseEvent struct {
	Type string
	Data string
}

// handleRender renders progressively, sending every pass as a PNG. The
// client disconnecting cancels the render after the running pass.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events := make(chan sseEvent, 64)
	written := make(chan struct{})
	go func() {
		defer close(written)
		for event := range events {
			writeSSEEvent(w, event)
		}
	}()
	defer func() {
		close(events)
		<-written
	}()

	req, err := parseRenderRequest(r)
	if err != nil {
		events <- sseEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)}
		return
	}

	stopConsole := s.streamConsole(r.Context(), events)
	stats, err := s.render(r.Context(), req, events)
	stopConsole()

	if err != nil {
		events <- sseEvent{Type: "error", Data: fmt.Sprintf("Render error: %v", err)}
		return
	}
	events <- jsonEvent("complete", CompleteUpdate{
		Passes:          stats.Passes,
		SamplesPerPixel: stats.SamplesPerPixel,
		TotalSamples:    stats.TotalSamples,
		Discarded:       stats.Discarded,
		SamplesPerSec:   stats.SamplesPerSecond(),
		StopReason:      string(stats.StopReason),
		ElapsedMs:       stats.Elapsed.Milliseconds(),
	})
}

func (s *Server) render(ctx context.Context, req *RenderRequest, events chan<- sseEvent) (renderer.RenderStats, error) {
	job, err := s.resolveScene(req.Scene, req.Width, req.Height)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	name := req.Integrator
	if name == "" {
		name = job.Options.Integrator
	}
	integ, err := integrator.New(name, job.Scene)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	config := renderer.DefaultProgressiveConfig(job.Options.Width, job.Options.Height)
	config.SamplesPerPixel = req.Samples
	config.SamplesPerPass = req.SamplesPerPass
	config.TimeLimit = req.TimeLimit
	config.CheckpointInterval = time.Nanosecond // every pass
	config.Seed = job.Options.Seed

	r, err := renderer.NewProgressiveRenderer(job.Camera, integ, config)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	gamma, sensitivity := job.Options.Gamma, core.NewVec3(job.Options.Sensitivity[0], job.Options.Sensitivity[1], job.Options.Sensitivity[2])
	lastPass := 0
	stats, err := r.Render(ctx, func(film *renderer.Film, stats renderer.RenderStats) error {
		// the final flush repeats the last pass
		if stats.Passes == lastPass {
			return nil
		}
		lastPass = stats.Passes

		imageData, err := imageToBase64PNG(film.Image(gamma, sensitivity))
		if err != nil {
			return fmt.Errorf("failed to encode image: %w", err)
		}
		events <- jsonEvent("progress", ProgressUpdate{
			PassNumber:      stats.Passes,
			SamplesPerPixel: stats.SamplesPerPixel,
			TargetSamples:   req.Samples,
			ImageData:       imageData,
			ElapsedMs:       stats.Elapsed.Milliseconds(),
		})
		return nil
	})
	return stats, err
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{
		Scene:      query.Get("scene"),
		Integrator: query.Get("integrator"),
	}
	if req.Scene == "" {
		req.Scene = "cornell-box"
	}
	if req.Integrator != "" && !slices.Contains(integrator.Names(), req.Integrator) {
		return nil, fmt.Errorf("unknown integrator %q (available: %v)", req.Integrator, integrator.Names())
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 0, 4096); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, 0, 4096); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 64, 0, 100000); err != nil {
		return nil, err
	}
	if req.SamplesPerPass, err = parseIntParam(query, "samplesPerPass", renderer.DefaultSamplesPerPass, 1, 1024); err != nil {
		return nil, err
	}
	if req.TimeLimit, err = parseDurationParam(query, "timeLimit", 0, time.Hour); err != nil {
		return nil, err
	}
	if req.Samples == 0 && req.TimeLimit == 0 {
		return nil, renderer.ErrNoStopCondition
	}
	if req.Width*req.Height > 1920*1080 && req.Samples > 1000 {
		logger.Warningf("large image with %d samples per pixel may render slowly", req.Samples)
	}
	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func jsonEvent(eventType string, v interface{}) sseEvent {
	data, err := json.Marshal(v)
	if err != nil {
		return sseEvent{Type: "error", Data: err.Error()}
	}
	return sseEvent{Type: eventType, Data: string(data)}
}

func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvent writes a single event and flushes it to the client
func writeSSEEvent(w http.ResponseWriter, event sseEvent) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
