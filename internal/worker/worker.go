// Package worker runs the thumbnail pipeline: a fixed pool of goroutines
// consuming the durable queue. Jobs run concurrently with each other; there
// is no ordering guarantee across files.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/maverick-lab/filebox/internal/models"
	"github.com/maverick-lab/filebox/internal/queue"
)

// Dequeuer is the consuming side of the job queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Ack(ctx context.Context, job *queue.Job) error
	Fail(ctx context.Context, job *queue.Job) error
}

// Processor handles a single job. A returned error marks the job failed.
type Processor interface {
	Process(ctx context.Context, job models.ThumbnailJob) error
}

// Pool consumes the queue with a fixed number of workers.
type Pool struct {
	queue     Dequeuer
	processor Processor
	size      int
}

// NewPool creates a worker pool of the given size (minimum 1)
func NewPool(q Dequeuer, p Processor, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{queue: q, processor: p, size: size}
}

// Run blocks until ctx is cancelled, consuming jobs with p.size workers.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.consume(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) consume(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker %d: dequeue failed: %v", id, err)
			// Back off briefly so a down Redis doesn't spin the loop.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		if err := p.processor.Process(ctx, job.Payload); err != nil {
			log.Printf("worker %d: job for file %s failed: %v", id, job.Payload.FileID, err)
			if failErr := p.queue.Fail(ctx, job); failErr != nil {
				log.Printf("worker %d: failed to record job failure: %v", id, failErr)
			}
			continue
		}

		if err := p.queue.Ack(ctx, job); err != nil {
			log.Printf("worker %d: failed to ack job: %v", id, err)
		}
	}
}
