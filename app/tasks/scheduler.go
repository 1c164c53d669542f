package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize      = 300
	taskTimeout    = 5 * time.Minute
	maxRetryDelay  = 30 * time.Second
	baseRetryDelay = time.Second
)

var tasksExecutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "newsdesk_tasks_executed_total",
	Help: "Background task executions by type and outcome",
}, []string{"type", "outcome"})

type SchedulerConfig struct {
	Interval     time.Duration
	WorkerCount  int
	WarmQueries  []string
	WarmInterval time.Duration
}

type Scheduler struct {
	ingester       ArticleIngester
	sessions       SessionCollector
	roles          RoleLoader
	warmQueries    []string
	warmInterval   time.Duration
	lastWarm       time.Time
	interval       time.Duration
	workerCount    int
	baseRetryDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

// NewScheduler creates the background worker pool. sessions and roles may be
// nil when there is nothing to maintain.
func NewScheduler(config SchedulerConfig, ingester ArticleIngester, sessions SessionCollector, roles RoleLoader) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		ingester:       ingester,
		sessions:       sessions,
		roles:          roles,
		warmQueries:    config.WarmQueries,
		warmInterval:   config.WarmInterval,
		interval:       config.Interval,
		workerCount:    config.WorkerCount,
		baseRetryDelay: baseRetryDelay,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueWarmTasks(time.Now())

		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.C:
				s.enqueueTasks(now)
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers to exit. Queued tasks
// are discarded.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueWarmTasks(now time.Time) {
	if len(s.warmQueries) == 0 {
		return
	}

	slog.Debug("Scheduling article warm-up", "queries", len(s.warmQueries))

	for _, query := range s.warmQueries {
		if err := s.EnqueueTask(NewWarmArticlesTask(query, s.ingester)); err != nil {
			slog.Warn("Failed to enqueue WarmArticlesTask", "query", query, "error", err)
		}
	}
	s.lastWarm = now
}

func (s *Scheduler) enqueueTasks(now time.Time) {
	if s.roles != nil {
		if err := s.EnqueueTask(NewReloadRolesTask(s.roles)); err != nil {
			slog.Warn("Failed to enqueue ReloadRolesTask", "error", err)
		}
	}

	if s.sessions != nil {
		if err := s.EnqueueTask(NewSessionGCTask(s.sessions)); err != nil {
			slog.Warn("Failed to enqueue SessionGCTask", "error", err)
		}
	}

	if s.warmInterval > 0 && now.Sub(s.lastWarm) >= s.warmInterval {
		s.enqueueWarmTasks(now)
	} else {
		slog.Debug("Article warm-up not due yet", "last_warm", s.lastWarm)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		tasksExecutedTotal.WithLabelValues(string(task.GetType()), "success").Inc()
		return
	}

	tasksExecutedTotal.WithLabelValues(string(task.GetType()), "error").Inc()
	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles per attempt and is capped at maxRetryDelay.
func (s *Scheduler) retryDelay(attempt int) time.Duration {
	if attempt > 16 {
		return maxRetryDelay
	}
	delay := s.baseRetryDelay << uint(attempt-1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
