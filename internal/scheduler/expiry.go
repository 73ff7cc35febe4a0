package scheduler

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wasteless/marketplace/internal/logging"
	"github.com/wasteless/marketplace/internal/repo"
)

// ExpiryJob periodically deactivates products past their expiry timestamp and
// moves them into the compost category.
type ExpiryJob struct {
	DB              *gorm.DB
	CompostCategory string
	Interval        time.Duration
	Now             func() time.Time
}

func (j *ExpiryJob) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Run sweeps on every tick until the context is cancelled.
func (j *ExpiryJob) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l := logging.FromContext(ctx).With("job", "product_expiry")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			affected, err := j.SweepOnce(ctx)
			if err != nil {
				l.Error("sweep failed", "error", err)
				continue
			}
			if affected > 0 {
				l.Info("expired products recategorized", "count", affected)
			}
		}
	}
}

func (j *ExpiryJob) SweepOnce(ctx context.Context) (int64, error) {
	var affected int64
	err := j.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.New(tx)

		compost, err := r.CategoryByName(ctx, j.CompostCategory)
		if err != nil {
			return fmt.Errorf("compost category %q: %w", j.CompostCategory, err)
		}

		n, err := r.ExpireActiveProducts(ctx, j.now(), compost.ID)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	return affected, err
}
