// Package service contains the domain logic sitting between the HTTP
// handlers and the database
package service

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// Task is a fire-and-forget unit of background work, like sending a
// share notification or appending a history row. Failures are logged
// and never reach the request that scheduled them.
type Task struct {
	Name string
	Run  func() error
}

type TaskQueue struct {
	tasks   chan *Task
	running atomic.Int32
	workers int
}

// NewTaskQueue initializes a new task queue that limits the
// max amount of tasks that can be queued at once
func NewTaskQueue(workers, backlog int) *TaskQueue {
	if workers <= 0 {
		workers = 2
	}
	if backlog <= 0 {
		backlog = 64
	}

	return &TaskQueue{
		tasks:   make(chan *Task, backlog),
		workers: workers,
	}
}

func (q *TaskQueue) StartWorkerPool() {
	for range q.workers {
		go q.worker()
	}
}

func (q *TaskQueue) worker() {
	for task := range q.tasks {
		err := task.Run()

		q.running.Add(-1)

		if err != nil {
			zap.L().Error("Background task finished with an error",
				zap.String("task", task.Name),
				zap.Error(err))
		} else {
			zap.L().Debug("Background task finished successfully", zap.String("task", task.Name))
		}
	}
}

// Enqueue schedules a task without blocking the caller. A full queue
// drops the task, which callers accept for best-effort work.
func (q *TaskQueue) Enqueue(task *Task) error {
	select {
	case q.tasks <- task:
		q.running.Add(1)
		zap.L().Debug("New task enqueued", zap.Int32("enqueued", q.running.Load()), zap.String("task", task.Name))
		return nil
	default:
		return errors.New("task queue full")
	}
}

// Close stops accepting work and lets running workers drain.
func (q *TaskQueue) Close() {
	close(q.tasks)
}
