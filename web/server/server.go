// Package server streams progressive renders to a browser over server-sent
// events and answers pixel inspection queries.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/log"
	"github.com/df07/go-pathtracer/pkg/scene"
)

var logger = log.New("server")

// Server handles web requests for the path tracer
type Server struct {
	addr      string
	scenesDir string
	staticDir string
	console   *Console
}

// NewServer creates a server listening on addr. Scene files are looked up in
// scenesDir and the browser front end is served from staticDir when set.
func NewServer(addr, scenesDir, staticDir string) *Server {
	return &Server{
		addr:      addr,
		scenesDir: scenesDir,
		staticDir: staticDir,
		console:   NewConsole(),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves until ctx is cancelled. Log output is mirrored to the web
// console of every running render.
func (s *Server) Start(ctx context.Context) error {
	log.SetSink(io.MultiWriter(os.Stdout, s.console))
	defer log.SetSink(os.Stdout)

	httpServer := &http.Server{Addr: s.addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() {
		logger.Noticef("serving on http://%s", s.addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type sceneEntry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}
	entries := make([]sceneEntry, 0, len(scenes))
	for _, info := range scenes {
		id := info.ID
		if info.FilePath != "" {
			id = info.FilePath
		}
		entries = append(entries, sceneEntry{ID: id, Name: info.Name, Description: info.Description, Type: info.Type})
	}
	writeJSON(w, http.StatusOK, entries)
}

// resolveScene loads a built-in scene or one of the files in the scenes
// directory. Other paths are refused.
func (s *Server) resolveScene(ref string, width, height int) (*loaders.Built, error) {
	if loaders.IsDescriptionFile(ref) {
		files, err := scene.ListSceneFiles(s.scenesDir)
		if err != nil {
			return nil, err
		}
		listed := slices.ContainsFunc(files, func(info scene.SceneInfo) bool {
			return filepath.Clean(info.FilePath) == filepath.Clean(ref)
		})
		if !listed {
			return nil, fmt.Errorf("scene file %q is not in the scenes directory", ref)
		}
	}
	return loaders.Resolve(ref, width, height)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("failed to encode response: %v", err)
	}
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseDurationParam parses a Go duration such as "30s"
func parseDurationParam(values url.Values, key string, defaultValue, max time.Duration) (time.Duration, error) {
	if value := values.Get(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < 0 || parsed > max {
			return 0, fmt.Errorf("%s must be between 0 and %v, got: %v", key, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
