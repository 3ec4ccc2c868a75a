// Package scheduler runs cancellable one-shot tasks on top of gocron.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a delayed task.
type TaskStatus int32

const (
	TaskStatusScheduled TaskStatus = iota
	TaskStatusRunning
	TaskStatusCompleted
	TaskStatusCancelled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusScheduled:
		return "scheduled"
	case TaskStatusRunning:
		return "running"
	case TaskStatusCompleted:
		return "completed"
	case TaskStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a function scheduled to run once after a delay.
type Task struct {
	ID    uuid.UUID
	Name  string
	RunAt time.Time

	status atomic.Int32
	done   chan struct{}
}

// Status returns the current state of the task.
func (t *Task) Status() TaskStatus {
	return TaskStatus(t.status.Load())
}

// Done is closed once the task has run or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Scheduler manages delayed tasks.
type Scheduler struct {
	gocron gocron.Scheduler

	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// New creates a new scheduler. Tasks only run after Start.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		gocron: gocronScheduler,
		tasks:  make(map[uuid.UUID]*Task),
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	log.Debug("Starting task scheduler")
	s.gocron.Start()
}

// Stop cancels every pending task and stops the scheduler.
func (s *Scheduler) Stop() error {
	log.Debug("Stopping task scheduler")

	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		s.Cancel(t.ID)
	}
	return s.gocron.Shutdown()
}

// Schedule runs fn once after delay. A delay <= 0 runs it as soon as possible.
func (s *Scheduler) Schedule(name string, delay time.Duration, fn func()) (*Task, error) {
	task := &Task{
		ID:    uuid.New(),
		Name:  name,
		RunAt: time.Now().Add(delay),
		done:  make(chan struct{}),
	}

	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(task.RunAt)
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	_, err := s.gocron.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(s.wrapTaskFunc(task, fn)),
		gocron.WithIdentifier(task.ID),
		gocron.WithName(name),
	)
	if err != nil {
		s.forget(task.ID)
		return nil, fmt.Errorf("failed to schedule task %s: %w", name, err)
	}

	log.Debug("Scheduled task", "id", task.ID, "name", name, "delay", delay)
	return task, nil
}

// After schedules fn to run once after delay and returns a function that
// cancels it. cancel reports whether the task was stopped before it ran.
func (s *Scheduler) After(delay time.Duration, fn func()) (func() bool, error) {
	task, err := s.Schedule("after", delay, fn)
	if err != nil {
		return nil, err
	}
	return func() bool {
		return s.Cancel(task.ID)
	}, nil
}

// Cancel stops a task that has not started yet.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	if !task.status.CompareAndSwap(int32(TaskStatusScheduled), int32(TaskStatusCancelled)) {
		return false
	}
	close(task.done)
	s.forget(id)

	if err := s.gocron.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		log.Warn("Failed to remove cancelled task", "id", id, "error", err)
	}
	log.Debug("Cancelled task", "id", id, "name", task.Name)
	return true
}

// Pending returns the number of tasks that have neither run nor been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// wrapTaskFunc guards fn so it runs at most once and never after Cancel.
func (s *Scheduler) wrapTaskFunc(task *Task, fn func()) func() {
	return func() {
		if !task.status.CompareAndSwap(int32(TaskStatusScheduled), int32(TaskStatusRunning)) {
			return
		}
		defer func() {
			task.status.Store(int32(TaskStatusCompleted))
			s.forget(task.ID)
			close(task.done)
		}()

		log.Debug("Running task", "id", task.ID, "name", task.Name)
		fn()
	}
}
