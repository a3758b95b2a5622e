package tasks

import (
	"context"
	"log/slog"
	"sync"
)

type Task = func()

// Pool runs fire-and-forget work (health polling, deferred refreshes) off
// the view loop so the terminal never blocks on it.
type Pool struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         *sync.WaitGroup
}

func New(log *slog.Logger, maxWorkers int, maxQueueSize int) *Pool {
	wg := &sync.WaitGroup{}
	wg.Add(maxWorkers)
	return &Pool{
		log:        log,
		maxWorkers: maxWorkers,
		wg:         wg,
		tasks:      make(chan Task, maxQueueSize),
	}
}

func (p *Pool) Run() {
	for i := 0; i < p.maxWorkers; i++ {
		i := i
		go func() {
			log := p.log.With("worker", i)
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic", "err", err)
				}
				p.wg.Done()
			}()
			for task := range p.tasks {
				task()
				log.Debug("task done")
			}
		}()
	}
}

func (p *Pool) Add(task Task) {
	p.tasks <- task
}

func (p *Pool) Shutdown(ctx context.Context) error {
	const op = "tasks.Pool.Shutdown"
	log := p.log.With("op", op)
	log.Info("shutting down background tasks")
	close(p.tasks)
	shutdownCh := make(chan bool, 1)
	go func() {
		p.wg.Wait()
		shutdownCh <- true
	}()
	select {
	case <-ctx.Done():
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-shutdownCh:
		log.Info("Background tasks succesfully stopped")
		return nil
	}
}

func (p *Pool) IsEmpty() bool {
	return len(p.tasks) == 0
}
