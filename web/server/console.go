package server

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "notice", "warning", "error"
}

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	levelTag   = regexp.MustCompile(`\[(DEBU|INFO|NOTI|WARN|ERRO|CRIT)\]`)
)

var levelNames = map[string]string{
	"DEBU": "debug",
	"INFO": "info",
	"NOTI": "notice",
	"WARN": "warning",
	"ERRO": "error",
	"CRIT": "error",
}

// Console is an io.Writer log sink that fans formatted log lines out to
// subscribers. Slow subscribers miss messages rather than block logging.
type Console struct {
	mu          sync.Mutex
	subscribers map[chan ConsoleMessage]struct{}
}

// NewConsole creates a console without subscribers
func NewConsole() *Console {
	return &Console{subscribers: make(map[chan ConsoleMessage]struct{})}
}

// Write implements io.Writer. Every non-empty line becomes one message.
func (c *Console) Write(p []byte) (int, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subscribers) == 0 {
		return len(p), nil
	}

	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(ansiEscape.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		msg := ConsoleMessage{Message: line, Timestamp: now, Level: "info"}
		if m := levelTag.FindStringSubmatch(line); m != nil {
			msg.Level = levelNames[m[1]]
		}
		for sub := range c.subscribers {
			select {
			case sub <- msg:
			default:
			}
		}
	}
	return len(p), nil
}

// Subscribe returns a channel receiving console messages and a function
// that ends the subscription.
func (c *Console) Subscribe() (<-chan ConsoleMessage, func()) {
	sub := make(chan ConsoleMessage, 100)
	c.mu.Lock()
	c.subscribers[sub] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, sub)
			c.mu.Unlock()
		})
	}
}

// streamConsole forwards console messages as SSE events until the returned
// stop function is called. stop waits for the forwarder to exit, so no event
// is sent after it returns.
func (s *Server) streamConsole(ctx context.Context, events chan<- sseEvent) (stop func()) {
	messages, unsubscribe := s.console.Subscribe()
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case msg := <-messages:
				events <- jsonEvent("console", msg)
			case <-quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		unsubscribe()
		close(quit)
		<-done
	}
}
