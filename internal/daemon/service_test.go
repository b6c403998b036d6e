package daemon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/sitefixture"
)

func newFixtureService(t *testing.T) (*Service, string) {
	t.Helper()
	logging.Discard()
	root := t.TempDir()
	data := sitefixture.Write(t, root)
	svc := New(Config{
		Build: pipeline.Options{
			DataDir:   data,
			DistDir:   filepath.Join(root, "dist"),
			ClientDir: filepath.Join(root, "client"),
			BaseURL:   "https://tax.example.dev",
			Workers:   2,
		},
		Interval: time.Second,
		Watch:    true,
	})
	return svc, data
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{Interval: time.Millisecond})
	if s.cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", s.cfg.Interval)
	}
	if s.cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", s.cfg.Addr)
	}
	if s.cfg.EventsBuffer != 200 {
		t.Errorf("EventsBuffer = %d", s.cfg.EventsBuffer)
	}
}

func TestPoll_RebuildsOnlyOnChange(t *testing.T) {
	svc, data := newFixtureService(t)
	ctx := context.Background()

	svc.Rebuild(ctx, "initial")
	st := svc.Status()
	if st.BuildCount != 1 || st.LastError != "" {
		t.Fatalf("after initial: builds=%d err=%q", st.BuildCount, st.LastError)
	}
	if st.LastBuild.Pages != 4 {
		t.Fatalf("Pages = %d, want 4", st.LastBuild.Pages)
	}
	if st.LastBuild.RootURL != "https://tax.example.dev/" {
		t.Errorf("RootURL = %q", st.LastBuild.RootURL)
	}

	if svc.Poll(ctx) {
		t.Fatal("Poll rebuilt with unchanged inputs")
	}

	sitefixture.WriteFile(t, filepath.Join(data, "notes.txt"), "draft")
	if !svc.Poll(ctx) {
		t.Fatal("Poll did not rebuild after a new input file")
	}
	st = svc.Status()
	if st.BuildCount != 2 || st.PollCount != 2 {
		t.Errorf("builds=%d polls=%d, want 2 and 2", st.BuildCount, st.PollCount)
	}

	svc.mu.RLock()
	last := svc.events[len(svc.events)-1]
	svc.mu.RUnlock()
	if last.Type != EventBuild || last.InputsChanged != 1 || last.Reason != "inputs changed" {
		t.Errorf("last event = %+v", last)
	}
}

func TestRebuild_ErrorKeepsLastBuild(t *testing.T) {
	svc, data := newFixtureService(t)
	ctx := context.Background()
	svc.Rebuild(ctx, "initial")

	if err := os.Remove(filepath.Join(data, "config.json")); err != nil {
		t.Fatal(err)
	}
	if !svc.Poll(ctx) {
		t.Fatal("removal not detected")
	}

	st := svc.Status()
	if st.LastError == "" {
		t.Fatal("LastError empty after failed build")
	}
	if st.LastBuild.Pages != 4 {
		t.Errorf("LastBuild.Pages = %d, want previous 4", st.LastBuild.Pages)
	}
	svc.mu.RLock()
	last := svc.events[len(svc.events)-1]
	svc.mu.RUnlock()
	if last.Type != EventBuildError || last.Error == "" {
		t.Errorf("last event = %+v", last)
	}
}

func TestHandler_Endpoints(t *testing.T) {
	svc, _ := newFixtureService(t)
	svc.Rebuild(context.Background(), "initial")

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "ok\n" {
		t.Errorf("/healthz = %d %q", code, body)
	}

	code, body := get("/v1/status")
	if code != http.StatusOK {
		t.Fatalf("/v1/status = %d", code)
	}
	if got := gjson.Get(body, "last_build.pages").Int(); got != 4 {
		t.Errorf("last_build.pages = %d, want 4", got)
	}
	if !gjson.Get(body, "watching").Bool() {
		t.Error("watching = false")
	}

	_, body = get("/v1/events")
	events := gjson.Parse(body).Array()
	if len(events) != 1 || events[0].Get("type").String() != EventBuild {
		t.Errorf("/v1/events = %s", body)
	}

	code, body = get("/in/hi/")
	if code != http.StatusOK || !strings.Contains(body, `id="tax-data"`) {
		t.Errorf("/in/hi/ = %d, body missing payload", code)
	}
	if code, _ := get("/nope/"); code != http.StatusNotFound {
		t.Errorf("/nope/ = %d, want 404", code)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	svc, _ := newFixtureService(t)
	svc.cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for svc.Status().BuildCount == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
