package housekeeping

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"form-shield/internal/notify"
	"form-shield/internal/reporting"
	"form-shield/internal/settings"
	"form-shield/pkg/logger"
)

// RetentionCleaner deletes rows older than days; days <= 0 disables it.
type RetentionCleaner interface {
	Cleanup(ctx context.Context, days int) (int64, error)
}

type CacheSweeper interface {
	Cleanup(ctx context.Context) (int, error)
}

type SettingsSource interface {
	Current(ctx context.Context) (settings.Settings, error)
}

type AnalyticsSource interface {
	Analytics(ctx context.Context, req reporting.AnalyticsRequest) (reporting.Analytics, error)
}

// Result summarises one run.
type Result struct {
	Submissions  int64 `json:"submissions_removed"`
	APILogs      int64 `json:"api_logs_removed"`
	CacheEntries int   `json:"cache_entries_removed"`
	ReportSent   bool  `json:"report_sent"`
}

// Job is the periodic retention and reporting task. It runs outside the
// request path.
type Job struct {
	Settings    SettingsSource
	Submissions RetentionCleaner
	APILogs     RetentionCleaner
	Cache       CacheSweeper
	Analytics   AnalyticsSource
	Notifier    notify.Notifier
}

// RunOnce runs the three cleanups concurrently, then sends the daily report
// when it is enabled. A cleanup failure does not stop the others.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	log := logger.From(ctx)
	cur, err := j.Settings.Current(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var g errgroup.Group
	var subErr, logErr, cacheErr error

	if j.Submissions != nil {
		g.Go(func() error {
			res.Submissions, subErr = j.Submissions.Cleanup(ctx, cur.RetentionDays)
			return nil
		})
	}
	if j.APILogs != nil {
		g.Go(func() error {
			res.APILogs, logErr = j.APILogs.Cleanup(ctx, cur.APILogRetentionDays)
			return nil
		})
	}
	if j.Cache != nil {
		g.Go(func() error {
			res.CacheEntries, cacheErr = j.Cache.Cleanup(ctx)
			return nil
		})
	}
	_ = g.Wait()

	errs := errors.Join(subErr, logErr, cacheErr)
	if errs != nil {
		log.Error("housekeeping cleanup failed", "err", errs)
	}

	if cur.DailyReportEnabled && cur.NotificationEmail != "" && j.Analytics != nil && j.Notifier != nil {
		a, err := j.Analytics.Analytics(ctx, reporting.AnalyticsRequest{Period: "day", BudgetLimit: cur.DailyBudgetLimit})
		if err != nil {
			errs = errors.Join(errs, err)
		} else if err := j.Notifier.DailyReport(ctx, cur.NotificationEmail, a); err != nil {
			errs = errors.Join(errs, err)
		} else {
			res.ReportSent = true
		}
	}

	log.Info("housekeeping done",
		"submissions_removed", res.Submissions,
		"api_logs_removed", res.APILogs,
		"cache_entries_removed", res.CacheEntries,
		"report_sent", res.ReportSent,
	)
	return res, errs
}

// Run calls RunOnce every interval until ctx is done.
func (j *Job) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := j.RunOnce(ctx); err != nil {
				logger.From(ctx).Warn("housekeeping run had errors", "err", err)
			}
		}
	}
}
