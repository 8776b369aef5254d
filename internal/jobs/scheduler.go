// Package jobs запускает периодические задачи сервиса.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RFQCloser закрывает просроченные RFQ
type RFQCloser interface {
	CloseOverdueRFQs(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
}

func NewScheduler(log zerolog.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: timeout,
	}
}

// AddRFQCloser регистрирует задачу; пустое расписание ничего не регистрирует
func (s *Scheduler) AddRFQCloser(schedule string, closer RFQCloser) error {
	if schedule == "" {
		s.log.Info().Msg("rfq auto-close disabled")
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() { s.closeOverdue(closer) })
	return errors.Wrapf(err, "register rfq closer %q", schedule)
}

func (s *Scheduler) closeOverdue(closer RFQCloser) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	n, err := closer.CloseOverdueRFQs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("close overdue rfqs")
		return
	}
	if n > 0 {
		s.log.Info().Int("closed", n).Msg("overdue rfqs closed")
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop ждет завершения запущенных задач или отмены ctx
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
