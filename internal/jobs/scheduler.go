// Package jobs 运行与请求分发无关的周期任务，并记录每个任务的执行耗时供管理接口查询。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gl-gateway/gl-gateway/internal/metrics"
)

// Job 是一个周期任务。
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Timing 是任务最近一次执行的统计。
type Timing struct {
	Name            string    `json:"name"`
	IntervalSeconds float64   `json:"interval"`
	LastStart       time.Time `json:"last_start"`
	LastEnd         time.Time `json:"last_end"`
	LastDurationMs  int64     `json:"last_duration_ms"`
	Runs            int       `json:"runs"`
	Failures        int       `json:"failures"`
	LastError       string    `json:"last_error,omitempty"`
}

type entry struct {
	job      Job
	interval time.Duration
	delay    time.Duration
}

// Scheduler 按固定间隔运行任务，单个任务失败不会影响其他任务。
type Scheduler struct {
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries []entry
	timings map[string]*Timing
	running bool
}

// NewScheduler 创建调度器。
func NewScheduler(logger *logrus.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		logger:  logger,
		metrics: m,
		timings: make(map[string]*Timing),
	}
}

// Add 注册任务；delay 为首次执行前的等待时间。必须在 Run 之前调用。
func (s *Scheduler) Add(job Job, interval, delay time.Duration) error {
	if job == nil {
		return errors.New("job is required")
	}
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("job %s: scheduler already running", job.Name())
	}
	if _, dup := s.timings[job.Name()]; dup {
		return fmt.Errorf("job %s: already registered", job.Name())
	}
	s.entries = append(s.entries, entry{job: job, interval: interval, delay: delay})
	s.timings[job.Name()] = &Timing{Name: job.Name(), IntervalSeconds: interval.Seconds()}
	return nil
}

// Run 阻塞运行全部任务直到 ctx 取消。
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(func() error {
			s.loop(gctx, e)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		s.RunOnce(ctx, e.job)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce 同步执行一次任务并记录耗时，任务 panic 视为失败。
func (s *Scheduler) RunOnce(ctx context.Context, job Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
		end := time.Now()
		s.record(job.Name(), start, end, err)
		s.metrics.ObserveJob(job.Name(), err)

		fields := logrus.Fields{
			"action":     "job",
			"job":        job.Name(),
			"elapsed_ms": end.Sub(start).Milliseconds(),
		}
		if err != nil {
			s.logger.WithFields(fields).WithError(err).Warn("job_failed")
			return
		}
		s.logger.WithFields(fields).Debug("job_completed")
	}()
	return job.Run(ctx)
}

func (s *Scheduler) record(name string, start, end time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timings[name]
	if !ok {
		t = &Timing{Name: name}
		s.timings[name] = t
	}
	t.LastStart = start
	t.LastEnd = end
	t.LastDurationMs = end.Sub(start).Milliseconds()
	t.Runs++
	if err != nil {
		t.Failures++
		t.LastError = err.Error()
	} else {
		t.LastError = ""
	}
}

// Timings 返回按名称排序的任务统计快照。
func (s *Scheduler) Timings() []Timing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Timing, 0, len(s.timings))
	for _, t := range s.timings {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
