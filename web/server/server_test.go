package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ballScene = `# Scene: Red Ball
# Description: One diffuse sphere in front of the camera

[renderer]
samples = 2

[film]
resolution = [9, 9]

[camera]
fov = 40.0

[[camera.transform]]
type = "look-at"
origin = [0.0, 0.0, 5.0]
target = [0.0, 0.0, 0.0]
up = [0.0, 1.0, 0.0]

[[material]]
name = "red"
type = "lambert"
albedo = [0.8, 0.1, 0.1]

[[mesh]]
name = "ball"
type = "sphere"
radius = 1.0

[[object]]
name = "ball"
mesh = "ball"
material = "red"
`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ball.toml")
	require.NoError(t, os.WriteFile(path, []byte(ballScene), 0o644))
	return NewServer("localhost:0", dir, ""), path
}

func get(t *testing.T, s *Server, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type event struct {
	Type string
	Data string
}

func parseEvents(t *testing.T, body string) []event {
	t.Helper()
	var events []event
	var current event
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.Type != "":
			events = append(events, current)
			current = event{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func eventsOfType(events []event, eventType string) []event {
	var matched []event
	for _, e := range events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleScenes(t *testing.T) {
	s, path := newTestServer(t)
	rec := get(t, s, "/api/scenes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var scenes []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scenes))

	ids := map[string]string{}
	for _, entry := range scenes {
		ids[entry.ID] = entry.Type
	}
	assert.Equal(t, "builtin", ids["cornell-box"])
	assert.Equal(t, "toml", ids[path])
}

func TestHandleRender_Builtin(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/render", url.Values{
		"scene":          {"cornell-box"},
		"width":          {"8"},
		"height":         {"8"},
		"samples":        {"2"},
		"samplesPerPass": {"1"},
	})
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseEvents(t, rec.Body.String())
	require.Empty(t, eventsOfType(events, "error"))

	progress := eventsOfType(events, "progress")
	require.Len(t, progress, 2)
	for i, e := range progress {
		var update ProgressUpdate
		require.NoError(t, json.Unmarshal([]byte(e.Data), &update))
		assert.Equal(t, i+1, update.PassNumber)
		assert.Equal(t, i+1, update.SamplesPerPixel)
		assert.Equal(t, 2, update.TargetSamples)
		assert.NotEmpty(t, update.ImageData)
	}

	complete := eventsOfType(events, "complete")
	require.Len(t, complete, 1)
	assert.Equal(t, "complete", events[len(events)-1].Type)

	var done CompleteUpdate
	require.NoError(t, json.Unmarshal([]byte(complete[0].Data), &done))
	assert.Equal(t, 2, done.Passes)
	assert.Equal(t, 2, done.SamplesPerPixel)
	assert.Equal(t, 2*8*8, done.TotalSamples)
	assert.Equal(t, "samples reached", done.StopReason)
}

func TestHandleRender_SceneFile(t *testing.T) {
	s, path := newTestServer(t)
	rec := get(t, s, "/api/render", url.Values{
		"scene":      {path},
		"samples":    {"1"},
		"integrator": {"normal"},
	})
	events := parseEvents(t, rec.Body.String())
	require.Empty(t, eventsOfType(events, "error"))
	assert.Len(t, eventsOfType(events, "progress"), 1)
	assert.Len(t, eventsOfType(events, "complete"), 1)
}

func TestHandleRender_Errors(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "outside.toml")
	require.NoError(t, os.WriteFile(outside, []byte(ballScene), 0o644))

	tests := []struct {
		name    string
		query   url.Values
		message string
	}{
		{"bad width", url.Values{"width": {"abc"}}, "invalid width"},
		{"width too large", url.Values{"width": {"10000"}}, "width must be between"},
		{"unknown integrator", url.Values{"integrator": {"bogus"}}, "unknown integrator"},
		{"no stop condition", url.Values{"samples": {"0"}}, "sample count or a time limit"},
		{"bad time limit", url.Values{"timeLimit": {"soon"}}, "invalid timeLimit"},
		{"unknown builtin", url.Values{"scene": {"no-such-scene"}, "samples": {"1"}}, "Render error"},
		{"file outside scenes dir", url.Values{"scene": {outside}, "samples": {"1"}}, "not in the scenes directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			events := parseEvents(t, get(t, s, "/api/render", tt.query).Body.String())
			require.NotEmpty(t, events)
			last := events[len(events)-1]
			assert.Equal(t, "error", last.Type)
			assert.Contains(t, last.Data, tt.message)
			assert.Empty(t, eventsOfType(events, "complete"))
		})
	}
}

func TestHandleInspect(t *testing.T) {
	s, path := newTestServer(t)

	rec := get(t, s, "/api/inspect", url.Values{"scene": {path}, "x": {"4"}, "y": {"4"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var hit InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hit))
	assert.True(t, hit.Hit)
	assert.Equal(t, "lambertian", hit.MaterialType)
	assert.InDelta(t, 4.0, hit.Distance, 1e-6)
	assert.InDelta(t, 1.0, hit.Point[2], 1e-6)
	assert.InDelta(t, 1.0, hit.Normal[2], 1e-6)
	assert.Equal(t, "#cc1919", hit.Properties["color"])

	rec = get(t, s, "/api/inspect", url.Values{"scene": {path}, "x": {"0"}, "y": {"0"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var miss InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &miss))
	assert.False(t, miss.Hit)
	assert.Empty(t, miss.MaterialType)
}

func TestHandleInspect_Errors(t *testing.T) {
	s, path := newTestServer(t)
	tests := []struct {
		name  string
		query url.Values
	}{
		{"missing coordinates", url.Values{"scene": {path}}},
		{"outside image", url.Values{"scene": {path}, "x": {"9"}, "y": {"0"}}},
		{"bad height", url.Values{"scene": {path}, "height": {"-1"}, "x": {"0"}, "y": {"0"}}},
		{"unknown scene", url.Values{"scene": {"no-such-scene"}, "x": {"0"}, "y": {"0"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/inspect", tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMaterialInfo_Emissive(t *testing.T) {
	s, _ := newTestServer(t)
	job, err := s.resolveScene("cornell-box", 8, 8)
	require.NoError(t, err)

	require.NotEmpty(t, job.Scene.Emitters)
	for _, shape := range job.Scene.Emitters {
		materialType, properties := materialInfo(shape.Material())
		assert.Equal(t, "emissive", materialType)
		assert.Contains(t, properties, "radiance")
		require.Contains(t, properties, "base")
		base := properties["base"].(map[string]interface{})
		assert.NotEqual(t, "unknown", base["type"])
	}
}
