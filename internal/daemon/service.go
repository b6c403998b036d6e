// Package daemon provides the preview server: it serves a built site,
// watches the site inputs and rebuilds when they change.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/store"
)

// Config controls the preview server.
type Config struct {
	Build        pipeline.Options
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Watch        bool
}

// BuildSummary is the compact form of a pipeline.Report.
type BuildSummary struct {
	BuildID   string    `json:"build_id,omitempty"`
	At        time.Time `json:"at"`
	Pages     int       `json:"pages"`
	Skipped   int       `json:"skipped"`
	Files     int       `json:"files"`
	Bytes     int64     `json:"bytes"`
	Changed   int       `json:"changed"`
	ElapsedMs int64     `json:"elapsed_ms"`
	RootURL   string    `json:"root_url,omitempty"`
}

// Event is emitted after every build attempt.
type Event struct {
	ID            int64        `json:"id"`
	Type          string       `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	Reason        string       `json:"reason"`
	InputsChanged int          `json:"inputs_changed"`
	Build         BuildSummary `json:"build"`
	Error         string       `json:"error,omitempty"`
}

// Event types.
const (
	EventBuild      = "build"
	EventBuildError = "build_error"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time    `json:"started_at"`
	LastPollAt      time.Time    `json:"last_poll_at"`
	PollIntervalSec int          `json:"poll_interval_sec"`
	PollCount       int64        `json:"poll_count"`
	BuildCount      int64        `json:"build_count"`
	Watching        bool         `json:"watching"`
	DataDir         string       `json:"data_dir"`
	DistDir         string       `json:"dist_dir"`
	LastBuild       BuildSummary `json:"last_build"`
	LastError       string       `json:"last_error,omitempty"`
	EventCount      int          `json:"event_count"`
	SubscriberCount int          `json:"subscriber_count"`
}

// Service provides the preview server runtime and HTTP API.
type Service struct {
	cfg Config

	// buildMu serializes builds; mu guards everything below it.
	buildMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	buildCount  int64
	lastError   string
	lastBuild   BuildSummary
	inputs      map[string]store.FileInfo
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a preview service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 500*time.Millisecond {
		cfg.Interval = 2 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the API endpoints with the built site mounted at /.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Build.DistDir)))
	return mux
}

// Run builds once, then serves and (when watching) polls until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// A failed first build is reported through /v1/status, not fatal.
	s.Rebuild(ctx, "initial")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var tick <-chan time.Time
	if s.cfg.Watch {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-tick:
			s.Poll(ctx)
		case err := <-errCh:
			return fmt.Errorf("preview http server: %w", err)
		}
	}
}

// Poll fingerprints the inputs and rebuilds if anything changed since the
// last build. It reports whether a rebuild ran.
func (s *Service) Poll(ctx context.Context) bool {
	current, err := s.fingerprint()

	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	prev := s.inputs
	s.mu.Unlock()

	if err != nil {
		s.setError(err)
		logging.Log.Warnf("preview poll: %v", err)
		return false
	}
	changed := pipeline.DiffFingerprints(prev, current)
	if changed == 0 {
		return false
	}
	logging.Log.WithField("files", changed).Info("inputs changed, rebuilding")
	s.rebuild(ctx, "inputs changed", changed, current)
	return true
}

// Rebuild runs a build unconditionally.
func (s *Service) Rebuild(ctx context.Context, reason string) {
	current, err := s.fingerprint()
	if err != nil {
		logging.Log.Warnf("preview fingerprint: %v", err)
	}
	s.rebuild(ctx, reason, -1, current)
}

func (s *Service) rebuild(ctx context.Context, reason string, changed int, inputs map[string]store.FileInfo) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	now := time.Now()
	report, err := pipeline.Build(ctx, s.cfg.Build)

	s.mu.Lock()
	s.inputs = inputs
	s.buildCount++
	s.nextEventID++
	ev := Event{
		ID:            s.nextEventID,
		Type:          EventBuild,
		Timestamp:     now,
		Reason:        reason,
		InputsChanged: changed,
	}
	if err != nil {
		s.lastError = err.Error()
		ev.Type = EventBuildError
		ev.Error = err.Error()
		ev.Build = s.lastBuild
	} else {
		s.lastError = ""
		s.lastBuild = summarize(report, now)
		ev.Build = s.lastBuild
	}
	s.mu.Unlock()

	if err != nil {
		logging.Log.WithField("reason", reason).Errorf("preview build: %v", err)
	} else {
		logging.Log.WithFields(logrus.Fields{
			"reason": reason,
			"pages":  ev.Build.Pages,
			"ms":     ev.Build.ElapsedMs,
		}).Info("site rebuilt")
	}
	s.publishEvent(ev)
}

// fingerprint covers the data dir and, when set, the client dir.
func (s *Service) fingerprint() (map[string]store.FileInfo, error) {
	out := make(map[string]store.FileInfo)
	dirs := map[string]string{"data/": s.cfg.Build.DataDir}
	if s.cfg.Build.ClientDir != "" {
		dirs["client/"] = s.cfg.Build.ClientDir
	}
	if s.cfg.Build.TemplatePath != "" {
		dirs["template/"] = s.cfg.Build.TemplatePath
	}
	for prefix, dir := range dirs {
		files, err := pipeline.Fingerprint(dir)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting %s: %w", dir, err)
		}
		for path, info := range files {
			out[prefix+path] = info
		}
	}
	return out, nil
}

func summarize(r *pipeline.Report, at time.Time) BuildSummary {
	sum := BuildSummary{
		BuildID:   r.BuildID,
		At:        at,
		Pages:     len(r.Pages),
		Skipped:   len(r.Skipped),
		Files:     r.Files,
		Bytes:     r.Bytes,
		Changed:   r.Changed,
		ElapsedMs: r.Elapsed.Milliseconds(),
	}
	if root := r.Root(); root != nil {
		sum.RootURL = root.URL
	}
	return sum
}

func (s *Service) setError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Status returns the current server status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		BuildCount:      s.buildCount,
		Watching:        s.cfg.Watch,
		DataDir:         s.cfg.Build.DataDir,
		DistDir:         s.cfg.Build.DistDir,
		LastBuild:       s.lastBuild,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Current state first so clients need not wait for the next build.
	writeSSE(w, Event{
		Type:      "status",
		Timestamp: time.Now(),
		Build:     s.Status().LastBuild,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
