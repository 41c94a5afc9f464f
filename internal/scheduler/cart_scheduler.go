package scheduler

import (
	"github.com/Pood16/REST-API-V1/internal/app/service"
	"github.com/Pood16/REST-API-V1/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartScheduler periodically purges abandoned guest cart items. The cart
// service arms an in-process timer per guest line, but those timers do not
// survive a restart; this sweep catches whatever they missed.
type CartScheduler struct {
	cron        *cron.Cron
	cartService service.CartService
}

func NewCartScheduler(cartService service.CartService) *CartScheduler {
	return &CartScheduler{
		cron:        cron.New(),
		cartService: cartService,
	}
}

func (s *CartScheduler) Start() error {
	// Hourly sweep
	_, err := s.cron.AddFunc("0 * * * *", func() {
		if _, err := s.cartService.PurgeExpiredGuestLines(); err != nil {
			logger.Error("Scheduled guest cart purge failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for guest cart purge", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart retention scheduler started (hourly)", nil)
	return nil
}

func (s *CartScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Cart retention scheduler stopped", nil)
}
