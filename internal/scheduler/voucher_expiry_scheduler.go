package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// VoucherExpirer moves issued vouchers past their expiry to expired.
type VoucherExpirer interface {
	ExpireVouchers(ctx context.Context) (int64, error)
}

// VoucherExpiryScheduler sweeps expired vouchers on a cron spec.
type VoucherExpiryScheduler struct {
	cron     *cron.Cron
	spec     string
	vouchers VoucherExpirer
	timeout  time.Duration
	log      *logger.Logger
}

func NewVoucherExpiryScheduler(spec string, vouchers VoucherExpirer, log *logger.Logger) *VoucherExpiryScheduler {
	return &VoucherExpiryScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:     spec,
		vouchers: vouchers,
		timeout:  time.Minute,
		log:      log.Component("voucher_expiry_scheduler"),
	}
}

// Start registers the sweep and starts the cron loop. An invalid spec is
// returned without starting anything.
func (s *VoucherExpiryScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		s.log.Error("Failed to add cron job for voucher expiry", err, logger.Fields{"spec": s.spec})
		return err
	}

	s.cron.Start()
	s.log.Info("Voucher expiry scheduler started", logger.Fields{"spec": s.spec})
	return nil
}

func (s *VoucherExpiryScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.vouchers.ExpireVouchers(ctx)
	if err != nil {
		s.log.Error("Scheduled voucher expiry failed", err)
		return
	}

	s.log.Info("Scheduled voucher expiry completed", logger.Fields{"expired": expired})
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *VoucherExpiryScheduler) Stop() {
	s.log.Info("Stopping voucher expiry scheduler...")
	<-s.cron.Stop().Done()
	s.log.Info("Voucher expiry scheduler stopped")
}
