// Package service hosts the background side of the attachment engine: the
// queue worker pool, the waiting-upload scanner and the variant refresh.
package service

import (
	"context"
	"errors"
	"sync/atomic"

	"mediakit/media"
	"mediakit/record"

	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

// QueueJob is one queued upload to process: the attachment it belongs to,
// the record owning it and the staged file to consume.
type QueueJob struct {
	Attachment *media.Manager
	Record     record.Record
	Path       string
	Done       chan error
}

// QueueWorker fans queued uploads out over a fixed worker pool. Enqueue
// never blocks; a full queue is reported to the caller instead of stalling
// the producer.
type QueueWorker struct {
	jobs    chan *QueueJob
	running atomic.Int32
	workers int
}

func NewQueueWorker() *QueueWorker {
	workers := v.GetInt("queue.workers")
	if workers <= 0 {
		workers = 1
	}

	zap.L().Debug("Initializing queue worker", zap.Int("workers", workers))

	return &QueueWorker{
		jobs:    make(chan *QueueJob, workers*2),
		workers: workers,
	}
}

func (q *QueueWorker) StartWorkerPool(ctx context.Context) {
	for range q.workers {
		go q.worker(ctx)
	}
}

func (q *QueueWorker) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}

			err := job.Attachment.ProcessQueue(ctx, job.Record, job.Path, true)

			if job.Done != nil {
				job.Done <- err
				close(job.Done)
			}

			q.running.Add(-1)

			if err != nil {
				zap.L().Error("Queued upload finished with an error",
					zap.String("attachment", job.Attachment.Name),
					zap.Error(err))
			} else {
				zap.L().Debug("Queued upload processed",
					zap.String("attachment", job.Attachment.Name))
			}
		}
	}
}

// Enqueue hands a job to the pool, or fails immediately when every slot is
// taken.
func (q *QueueWorker) Enqueue(job *QueueJob) error {
	select {
	case q.jobs <- job:
		q.running.Add(1)
		zap.L().Debug("Queued upload enqueued", zap.Int32("enqueued", q.running.Load()))
		return nil
	default:
		return errors.New("job queue full")
	}
}

// Running reports how many jobs are enqueued or in flight.
func (q *QueueWorker) Running() int32 {
	return q.running.Load()
}

// Close stops the workers once the drained jobs finish.
func (q *QueueWorker) Close() {
	close(q.jobs)
}
