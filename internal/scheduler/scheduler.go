// Package scheduler runs recurring background tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/havenchat/havenchat/internal/logging"
)

// Task is a recurring background job
type Task struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Handler  TaskHandler   `json:"-"`
	Timeout  time.Duration `json:"timeout"`

	LastRun    *time.Time `json:"last_run,omitempty"`
	RunCount   int64      `json:"run_count"`
	ErrorCount int64      `json:"error_count"`
	LastError  string     `json:"last_error,omitempty"`
}

// TaskHandler is the function executed for a task
type TaskHandler func(ctx context.Context) error

// Scheduler runs registered tasks on their intervals
type Scheduler struct {
	tasks   map[string]*Task
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	log     *logging.Logger
}

// New creates a scheduler
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
		log:    logging.WithField("component", "scheduler"),
	}
}

// Register adds a task. Tasks registered after Start begin on the next Start.
func (s *Scheduler) Register(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if task.Handler == nil {
		return fmt.Errorf("task handler is required")
	}
	if task.Interval <= 0 {
		return fmt.Errorf("task interval must be positive")
	}
	if task.Timeout == 0 {
		task.Timeout = 5 * time.Minute
	}

	s.tasks[task.ID] = task
	return nil
}

// Start launches one loop per registered task
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runLoop(task)
	}

	s.log.Info("scheduler started with %d tasks", len(s.tasks))
	return nil
}

// Stop cancels all task loops and waits for them to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runLoop(task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(task)
		}
	}
}

func (s *Scheduler) execute(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, task.Timeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	task.LastRun = &now
	task.RunCount++
	s.mu.Unlock()

	err := task.Handler(ctx)

	s.mu.Lock()
	if err != nil {
		task.ErrorCount++
		task.LastError = err.Error()
	} else {
		task.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("task %s failed: %v", task.ID, err)
	}
}

// RunNow executes a task immediately, outside its interval
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}

	s.execute(task)
	return nil
}

// GetTask returns a task by ID
func (s *Scheduler) GetTask(taskID string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	return task, ok
}

// IntervalTask creates a task that runs at a fixed interval
func IntervalTask(id, name string, interval time.Duration, handler TaskHandler) *Task {
	return &Task{
		ID:       id,
		Name:     name,
		Interval: interval,
		Handler:  handler,
	}
}
