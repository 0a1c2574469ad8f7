// Package statsworker periodically exports pool demand totals as prometheus
// gauges. It reads only; pool aggregation itself stays uncached.
package statsworker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/observability/metrics"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config Config `optional:"true"`
}

type Worker struct {
	db  *gorm.DB
	log *zap.Logger
	cfg Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:  p.DB,
		log: p.Log.Named("pool.stats"),
		cfg: cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("pool stats refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := w.collect(ctx)
	if err != nil {
		return err
	}

	gauges := metrics.Pool()
	for _, row := range rows {
		gauges.Observe(row.Slug, row.PledgedSeats, row.VerifiedSeats, row.PledgeCount)
	}
	return nil
}

type poolTotalsRow struct {
	Slug          string
	PledgedSeats  int
	VerifiedSeats int
	PledgeCount   int
}

func (w *Worker) collect(ctx context.Context) ([]poolTotalsRow, error) {
	if w.db == nil {
		return nil, errors.New("stats_worker_unavailable")
	}

	var rows []poolTotalsRow
	err := w.db.WithContext(ctx).Raw(
		`SELECT p.slug AS slug,
		        COALESCE(SUM(pl.seats_intended), 0) AS pledged_seats,
		        COALESCE(SUM(CASE WHEN pl.is_verified THEN pl.seats_intended ELSE 0 END), 0) AS verified_seats,
		        COUNT(pl.id) AS pledge_count
		 FROM pools p
		 LEFT JOIN pledges pl ON pl.pool_id = p.id
		 GROUP BY p.slug`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
