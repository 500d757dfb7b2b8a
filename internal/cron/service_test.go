package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/multierr"

	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/metrics"
)

type fakeLock struct {
	held     bool
	released int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (ReleaseFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.held {
		return nil, ErrLockHeld
	}
	f.held = true
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, nil
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	_, t.deadline = ctx.Deadline()
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunCycleRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "outbox-retention"}
	failA := &testJob{name: "revenue-reconcile", err: errors.New("db down")}
	failB := &testJob{name: "third", err: errors.New("boom")}
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{failA, nil, ok, failB}, Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = svc.runCycle(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected two combined failures, got %d (%v)", got, err)
	}
	for _, job := range []*testJob{ok, failA, failB} {
		if job.runs != 1 {
			t.Fatalf("%s ran %d times", job.name, job.runs)
		}
		if !job.deadline {
			t.Fatalf("%s should run under the job timeout", job.name)
		}
	}
	if lock.released != 1 || lock.held {
		t.Fatalf("expected lock released once, got released=%d held=%v", lock.released, lock.held)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "revenue-reconcile"}
	lock := &fakeLock{held: true}
	svc, _ := NewService(ServiceParams{
		Logger:  testLogger(),
		Jobs:    []Job{job},
		Lock:    lock,
		Metrics: metrics.NewCronMetrics(reg),
	})

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("skipped cycle should not error: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock, ran %d", job.runs)
	}
	if !lock.held || lock.released != 0 {
		t.Fatal("held lock must not be released by a skipped cycle")
	}
	if got := counterValue(t, reg, "plasa_cron_cycles_skipped_total", nil); got != 1 {
		t.Fatalf("expected one skipped cycle, got %v", got)
	}
}

func TestRunCycleSurfacesLockErrors(t *testing.T) {
	job := &testJob{name: "outbox-retention"}
	svc, _ := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Lock: &fakeLock{err: errors.New("redis down")}})
	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
	if job.runs != 0 {
		t.Fatal("job must not run when the lock errors")
	}
}

func TestRunCycleRecordsJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, _ := NewService(ServiceParams{
		Logger:  testLogger(),
		Jobs:    []Job{&testJob{name: "outbox-retention"}, &testJob{name: "revenue-reconcile", err: errors.New("boom")}},
		Lock:    &fakeLock{},
		Metrics: metrics.NewCronMetrics(reg),
	})
	_ = svc.runCycle(context.Background())

	if got := counterValue(t, reg, "plasa_cron_job_runs_total", map[string]string{"job": "outbox-retention", "outcome": "success"}); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := counterValue(t, reg, "plasa_cron_job_runs_total", map[string]string{"job": "revenue-reconcile", "outcome": "failure"}); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "outbox-retention"}
	svc, _ := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Lock: &fakeLock{}, Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected an immediate cycle before exit, ran %d", job.runs)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected lock error")
	}
	svc, _ := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}})
	if svc.interval != defaultInterval || svc.jobTimeout != defaultJobTimeout {
		t.Fatalf("unexpected defaults interval=%v timeout=%v", svc.interval, svc.jobTimeout)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
