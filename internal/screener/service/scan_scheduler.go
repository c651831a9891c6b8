package service

import (
	"context"
	"fmt"

	"stocxer-screener/internal/screener/config"
	"stocxer-screener/internal/screener/dto"
	"stocxer-screener/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ScanScheduler enqueues recurring scans over the configured default
// universe.
type ScanScheduler struct {
	cfg         *config.Config
	log         *logger.Logger
	scanService ScanService
	cron        *cron.Cron
}

// NewScanScheduler creates a ScanScheduler from the configured schedules.
func NewScanScheduler(cfg *config.Config, log *logger.Logger, scanService ScanService) *ScanScheduler {
	return &ScanScheduler{
		cfg:         cfg,
		log:         log,
		scanService: scanService,
		cron:        cron.New(),
	}
}

// Start registers the configured schedules and starts the cron loop.
func (s *ScanScheduler) Start(ctx context.Context) error {
	for _, schedule := range s.cfg.Screener.Schedules {
		schedule := schedule
		_, err := s.cron.AddFunc(schedule.Cron, func() {
			req := dto.ScanRequest{
				UserID:        s.cfg.Screener.SystemUserID,
				Symbols:       s.cfg.Screener.DefaultUniverse,
				MinConfidence: s.cfg.Screener.DefaultMinConfidence,
				SignalType:    schedule.SignalType,
			}
			scanID, err := s.scanService.Enqueue(ctx, req)
			if err != nil {
				s.log.Error("Failed to enqueue scheduled scan", logger.ErrorField(err), logger.StringField("cron", schedule.Cron))
				return
			}
			s.log.Info("Scheduled scan enqueued",
				logger.StringField("scan_id", scanID),
				logger.StringField("cron", schedule.Cron),
				logger.StringField("signal_type", schedule.SignalType))
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", schedule.Cron, err)
		}
	}

	s.cron.Start()
	s.log.Info("Scan scheduler started", logger.IntField("schedules", len(s.cfg.Screener.Schedules)))
	return nil
}

// Stop stops the cron loop, waiting for a running trigger to return.
func (s *ScanScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scan scheduler stopped")
}
