package jobs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gl-gateway/gl-gateway/internal/metrics"
	"github.com/gl-gateway/gl-gateway/internal/policy"
)

const packagesIndex = `Package: globaleaks
Version: 4.9.2
Architecture: all
Description: whistleblowing platform
 continued description line

Package: globaleaks
Version: 4.10.1
Architecture: all

Package: globaleaks
Version: 1:4.2.0-1
Architecture: all

Package: other-tool
Version: 9.9.9
`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParseParagraphs(t *testing.T) {
	paragraphs := ParseParagraphs([]byte(packagesIndex))
	if len(paragraphs) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0]["Description"] != "whistleblowing platform\ncontinued description line" {
		t.Fatalf("continuation line not folded: %q", paragraphs[0]["Description"])
	}
}

func TestHighestVersion(t *testing.T) {
	paragraphs := ParseParagraphs([]byte(packagesIndex))
	got, ok := HighestVersion(paragraphs, "globaleaks")
	if !ok || got != "4.10.1" {
		t.Fatalf("expected 4.10.1, got %q", got)
	}
	if got, _ := HighestVersion(paragraphs, ""); got != "9.9.9" {
		t.Fatalf("without package filter expected 9.9.9, got %q", got)
	}
}

func TestVersionCheckRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, packagesIndex)
	}))
	defer srv.Close()

	job := &VersionCheck{Client: srv.Client(), URL: srv.URL, Package: "globaleaks", Current: "4.9.2", Logger: quietLogger()}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if job.Latest() != "4.10.1" || !job.UpdateAvailable() {
		t.Fatalf("unexpected result latest=%s update=%v", job.Latest(), job.UpdateAvailable())
	}
}

func TestVersionCheckUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	job := &VersionCheck{Client: srv.Client(), URL: srv.URL}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error for 502")
	}
	if job.Latest() != "" {
		t.Fatalf("failed run must not record a version")
	}
}

func TestTorExitRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# comment\n198.51.100.7\nExitNode ABC\nExitAddress 203.0.113.5 2024-01-01 00:00:00\n2001:db8::1\ngarbage\n")
	}))
	defer srv.Close()

	exits := policy.NewExitSet("192.0.2.1")
	job := &TorExitRefresh{Client: srv.Client(), URL: srv.URL, Exits: exits, Metrics: metrics.New(false)}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if exits.Len() != 3 || !exits.Contains("203.0.113.5") || exits.Contains("192.0.2.1") {
		t.Fatalf("exit set not replaced, len=%d", exits.Len())
	}
}

type countingJob struct {
	name  string
	calls chan struct{}
	err   error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.calls <- struct{}{}
	return j.err
}

func TestSchedulerRecordsTimings(t *testing.T) {
	s := NewScheduler(quietLogger(), metrics.New(false))
	ok := &countingJob{name: "ok", calls: make(chan struct{}, 16)}
	bad := &countingJob{name: "bad", calls: make(chan struct{}, 16), err: errors.New("upstream down")}
	if err := s.Add(ok, 10*time.Millisecond, 0); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := s.Add(bad, time.Hour, 0); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := s.Add(ok, time.Second, 0); err == nil {
		t.Fatalf("duplicate job names must be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-ok.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not run")
		}
	}
	<-bad.calls
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	timings := s.Timings()
	if len(timings) != 2 || timings[0].Name != "bad" {
		t.Fatalf("unexpected timings: %+v", timings)
	}
	if timings[0].Failures != 1 || timings[0].LastError != "upstream down" {
		t.Fatalf("failure not recorded: %+v", timings[0])
	}
	if timings[1].Runs < 2 {
		t.Fatalf("expected repeated runs, got %d", timings[1].Runs)
	}
}

type panicJob struct{}

func (panicJob) Name() string              { return "panic" }
func (panicJob) Run(context.Context) error { panic("boom") }

func TestRunOnceRecoversPanic(t *testing.T) {
	s := NewScheduler(quietLogger(), nil)
	if err := s.RunOnce(context.Background(), panicJob{}); err == nil {
		t.Fatalf("panic should surface as error")
	}
	if s.Timings()[0].Failures != 1 {
		t.Fatalf("panic should count as failure")
	}
}
