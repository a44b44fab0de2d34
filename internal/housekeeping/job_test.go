package housekeeping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-shield/internal/notify"
	"form-shield/internal/reporting"
	"form-shield/internal/settings"
)

type fixedSettings struct{ s settings.Settings }

func (f fixedSettings) Current(context.Context) (settings.Settings, error) { return f.s, nil }

type cleaner struct {
	days int
	n    int64
	err  error
}

func (c *cleaner) Cleanup(_ context.Context, days int) (int64, error) {
	c.days = days
	return c.n, c.err
}

type sweeper struct{ n int }

func (s sweeper) Cleanup(context.Context) (int, error) { return s.n, nil }

type analytics struct{ req reporting.AnalyticsRequest }

func (a *analytics) Analytics(_ context.Context, req reporting.AnalyticsRequest) (reporting.Analytics, error) {
	a.req = req
	return reporting.Analytics{Period: req.Period}, nil
}

type reportNotifier struct {
	notify.Noop
	to string
}

func (n *reportNotifier) DailyReport(_ context.Context, to string, _ reporting.Analytics) error {
	n.to = to
	return nil
}

func TestJob_RunOnce(t *testing.T) {
	s := settings.Defaults()
	s.DailyReportEnabled = true
	s.NotificationEmail = "ops@example.com"

	subs := &cleaner{n: 4}
	logs := &cleaner{n: 9}
	an := &analytics{}
	n := &reportNotifier{}
	job := &Job{
		Settings:    fixedSettings{s: s},
		Submissions: subs,
		APILogs:     logs,
		Cache:       sweeper{n: 2},
		Analytics:   an,
		Notifier:    n,
	}

	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Submissions: 4, APILogs: 9, CacheEntries: 2, ReportSent: true}, res)
	assert.Equal(t, 90, subs.days)
	assert.Equal(t, 30, logs.days)
	assert.Equal(t, "day", an.req.Period)
	assert.Equal(t, 10.0, an.req.BudgetLimit)
	assert.Equal(t, "ops@example.com", n.to)
}

func TestJob_CleanupFailureDoesNotStopOthers(t *testing.T) {
	logs := &cleaner{n: 3}
	job := &Job{
		Settings:    fixedSettings{s: settings.Defaults()},
		Submissions: &cleaner{err: errors.New("db down")},
		APILogs:     logs,
	}

	res, err := job.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(3), res.APILogs)
	assert.False(t, res.ReportSent)
}
