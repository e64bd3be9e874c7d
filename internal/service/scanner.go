package service

import (
	"context"
	"sync"
	"time"

	"mediakit/media"
	"mediakit/model"

	v "github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scanner polls the database for waiting uploads and feeds them to the
// worker pool. Records stuck in the working state are left alone so a
// crashed flush stays visible instead of being silently retried.
type Scanner struct {
	db      *gorm.DB
	factory *Factory
	queue   *QueueWorker

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

func NewScanner(db *gorm.DB, factory *Factory, queue *QueueWorker) *Scanner {
	return &Scanner{
		db:       db,
		factory:  factory,
		queue:    queue,
		inFlight: map[uint]struct{}{},
	}
}

// Run polls until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	interval := v.GetDuration("queue.poll_interval")
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.scan(ctx); err != nil {
				zap.L().Error("Queue scan failed", zap.Error(err))
			}
		}
	}
}

func (s *Scanner) scan(ctx context.Context) error {
	var assets []model.Asset

	err := s.db.WithContext(ctx).
		Where("image_queue_state = ?", int(media.QueueWaiting)).
		Find(&assets).Error
	if err != nil {
		return err
	}

	for i := range assets {
		asset := &assets[i]

		if !s.claim(asset.ID) {
			continue
		}

		m, err := s.factory.Image(s.db, asset)
		if err != nil {
			s.release(asset.ID)
			return err
		}

		done := make(chan error, 1)
		job := &QueueJob{
			Attachment: m,
			Record:     m.Record(),
			Path:       m.QueuedFilePath(),
			Done:       done,
		}

		if err := s.queue.Enqueue(job); err != nil {
			// Pool is saturated, the next tick picks the rest up.
			s.release(asset.ID)
			return nil
		}

		go func(id uint) {
			<-done
			s.release(id)
		}(asset.ID)
	}

	return nil
}

func (s *Scanner) claim(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[id]; ok {
		return false
	}

	s.inFlight[id] = struct{}{}
	return true
}

func (s *Scanner) release(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, id)
}
