package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/newsdesk/app/database"
)

// MockIngester records ingested queries and fails the first failures calls.
type MockIngester struct {
	mu       sync.Mutex
	queries  []string
	failures int
	done     chan string
}

func newMockIngester(failures int) *MockIngester {
	return &MockIngester{failures: failures, done: make(chan string, 16)}
}

func (m *MockIngester) Ingest(ctx context.Context, query string, page int) ([]database.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("upstream unavailable")
	}

	select {
	case m.done <- query:
	default:
	}
	return []database.Article{{URL: "https://example.com/" + query}}, nil
}

func (m *MockIngester) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

type MockCollector struct {
	runs chan struct{}
}

func (m *MockCollector) RunGC() error {
	select {
	case m.runs <- struct{}{}:
	default:
	}
	return nil
}

type MockRoleLoader struct {
	loads chan struct{}
	err   error
}

func (m *MockRoleLoader) Load() error {
	select {
	case m.loads <- struct{}{}:
	default:
	}
	return m.err
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("Timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestTaskBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeWarmArticles, "climate")

	if task.GetID() == "" {
		t.Error("Expected task ID to be generated")
	}
	if task.GetSubject() != "climate" {
		t.Errorf("Expected subject 'climate', got '%s'", task.GetSubject())
	}
	if task.GetDuration() != 0 {
		t.Errorf("Expected zero duration before start, got %v", task.GetDuration())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}

	other := NewTask(TaskTypeWarmArticles, "climate")
	if other.GetID() == task.GetID() {
		t.Error("Expected unique task IDs")
	}
}

func TestWarmArticlesTask(t *testing.T) {
	ingester := newMockIngester(0)
	task := NewWarmArticlesTask("davis", ingester)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ingester.calls() != 1 {
		t.Errorf("Expected 1 ingest call, got %d", ingester.calls())
	}

	failing := NewWarmArticlesTask("davis", newMockIngester(1))
	if err := failing.Execute(context.Background()); err == nil {
		t.Error("Expected error from failing ingester")
	}
}

func TestMaintenanceTasksDoNotRetry(t *testing.T) {
	gc := NewSessionGCTask(&MockCollector{runs: make(chan struct{}, 1)})
	if gc.CanRetry() {
		t.Error("Expected session GC task not to retry")
	}

	roles := NewReloadRolesTask(&MockRoleLoader{loads: make(chan struct{}, 1), err: errors.New("bad yaml")})
	if err := roles.Execute(context.Background()); err == nil {
		t.Error("Expected reload error")
	}
	if roles.CanRetry() {
		t.Error("Expected reload task not to retry")
	}
}

func TestSchedulerWarmsOnStartup(t *testing.T) {
	ingester := newMockIngester(0)
	scheduler := NewScheduler(SchedulerConfig{
		Interval:     time.Hour,
		WorkerCount:  2,
		WarmQueries:  []string{"davis", "sacramento"},
		WarmInterval: time.Hour,
	}, ingester, nil, nil)

	scheduler.Start()
	defer scheduler.Stop()

	seen := map[string]bool{}
	seen[waitFor(t, ingester.done, "first warm-up")] = true
	seen[waitFor(t, ingester.done, "second warm-up")] = true

	if !seen["davis"] || !seen["sacramento"] {
		t.Errorf("Expected both queries warmed, got %v", seen)
	}
}

func TestSchedulerRetriesFailedTasks(t *testing.T) {
	ingester := newMockIngester(2)
	scheduler := NewScheduler(SchedulerConfig{
		Interval:    time.Hour,
		WorkerCount: 1,
	}, ingester, nil, nil)
	scheduler.baseRetryDelay = 10 * time.Millisecond

	scheduler.Start()
	defer scheduler.Stop()

	if err := scheduler.EnqueueTask(NewWarmArticlesTask("flaky", ingester)); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	if query := waitFor(t, ingester.done, "successful retry"); query != "flaky" {
		t.Errorf("Expected 'flaky', got %q", query)
	}
	if ingester.calls() != 3 {
		t.Errorf("Expected 3 attempts, got %d", ingester.calls())
	}
}

func TestSchedulerTickRunsMaintenance(t *testing.T) {
	collector := &MockCollector{runs: make(chan struct{}, 4)}
	roles := &MockRoleLoader{loads: make(chan struct{}, 4)}
	scheduler := NewScheduler(SchedulerConfig{
		Interval:    20 * time.Millisecond,
		WorkerCount: 1,
	}, newMockIngester(0), collector, roles)

	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, collector.runs, "session GC")
	waitFor(t, roles.loads, "roles reload")
}

func TestSchedulerEnqueueAfterStop(t *testing.T) {
	scheduler := NewScheduler(SchedulerConfig{Interval: time.Hour, WorkerCount: 1}, newMockIngester(0), nil, nil)
	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueTask(NewWarmArticlesTask("late", nil)); err == nil {
		t.Error("Expected enqueue to fail after Stop")
	}
}

func TestSchedulerQueueFull(t *testing.T) {
	scheduler := NewScheduler(SchedulerConfig{Interval: time.Hour, WorkerCount: 1}, newMockIngester(0), nil, nil)
	defer scheduler.Stop()

	for i := 0; i < queueSize; i++ {
		if err := scheduler.EnqueueTask(NewWarmArticlesTask("q", nil)); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}
	if err := scheduler.EnqueueTask(NewWarmArticlesTask("q", nil)); err == nil {
		t.Error("Expected queue full error")
	}
}

func TestRetryDelay(t *testing.T) {
	scheduler := NewScheduler(SchedulerConfig{Interval: time.Hour, WorkerCount: 1}, nil, nil, nil)
	defer scheduler.Stop()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := scheduler.retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
