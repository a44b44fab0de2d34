package reporting

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"form-shield/internal/submission"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

const dayLayout = "2006-01-02"

var scoreBuckets = []string{"0-20", "20-40", "40-60", "60-80", "80-100"}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, clock: time.Now} }

// Window returns [from, to] for period: midnight today, or midnight 7 or 30
// days back, through the end of today.
func Window(now time.Time, period string) (from, to time.Time, err error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	to = today.Add(24*time.Hour - time.Second)

	switch period {
	case "day":
		return today, to, nil
	case "", "week":
		return today.AddDate(0, 0, -7), to, nil
	case "month":
		return today.AddDate(0, 0, -30), to, nil
	default:
		return time.Time{}, time.Time{}, ErrInvalidRequest
	}
}

func (s *Service) Analytics(ctx context.Context, req AnalyticsRequest) (Analytics, error) {
	if s.repo == nil {
		return Analytics{}, errors.New("reporting: repository not configured")
	}
	now := s.clock().UTC()
	from, to, err := Window(now, req.Period)
	if err != nil {
		return Analytics{}, err
	}
	if req.Period == "" {
		req.Period = "week"
	}

	stats, err := s.repo.ListStats(ctx, from, to)
	if err != nil {
		return Analytics{}, err
	}
	usage, err := s.repo.UsageByProvider(ctx, from)
	if err != nil {
		return Analytics{}, err
	}
	midnight, _, _ := Window(now, "day")
	spent, err := s.repo.CostSince(ctx, midnight)
	if err != nil {
		return Analytics{}, err
	}

	out := Analytics{
		Period:    req.Period,
		DateFrom:  from,
		DateTo:    to,
		Providers: map[string]ProviderBreakdown{},
	}

	// submissions
	days := map[string]*DayBreakdown{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		out.DailyBreakdown = append(out.DailyBreakdown, DayBreakdown{Date: key})
		days[key] = &out.DailyBreakdown[len(out.DailyBreakdown)-1]
	}
	forms := map[[2]string]*FormBreakdown{}
	buckets := make([]int, len(scoreBuckets))

	for _, st := range stats {
		out.Summary.TotalSubmissions++
		spam := st.Status == submission.StatusSpam
		switch st.Status {
		case submission.StatusSpam:
			out.Summary.SpamSubmissions++
		case submission.StatusApproved:
			out.Summary.ApprovedSubmissions++
		case submission.StatusWhitelist:
			out.Summary.WhitelistSubmissions++
		}

		if day, ok := days[st.CreatedAt.UTC().Format(dayLayout)]; ok {
			day.Total++
			if spam {
				day.Spam++
			}
			if st.Status == submission.StatusApproved {
				day.Approved++
			}
		}

		fk := [2]string{st.FormType, st.FormID}
		fb := forms[fk]
		if fb == nil {
			fb = &FormBreakdown{FormType: st.FormType, FormID: st.FormID}
			forms[fk] = fb
		}
		fb.Total++
		if spam {
			fb.Spam++
		}

		buckets[bucketFor(st.SpamScore)]++
	}
	if out.Summary.TotalSubmissions > 0 {
		out.Summary.SpamRate = float64(out.Summary.SpamSubmissions) / float64(out.Summary.TotalSubmissions) * 100
	}

	for _, fb := range forms {
		out.FormBreakdown = append(out.FormBreakdown, *fb)
	}
	sort.Slice(out.FormBreakdown, func(i, j int) bool {
		a, b := out.FormBreakdown[i], out.FormBreakdown[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.FormType != b.FormType {
			return a.FormType < b.FormType
		}
		return a.FormID < b.FormID
	})

	for i, r := range scoreBuckets {
		out.SpamDistribution = append(out.SpamDistribution, ScoreBucket{Range: r, Count: buckets[i]})
	}

	// provider usage
	var weighted float64
	for _, u := range usage {
		out.Summary.TotalAPICalls += u.TotalCalls
		out.Summary.TotalCost += u.TotalCost
		out.Summary.TotalTokens += u.TotalTokens
		weighted += u.AvgResponseTime * float64(u.TotalCalls)

		out.Providers[u.Provider] = ProviderBreakdown{
			Calls:           u.TotalCalls,
			Cost:            u.TotalCost,
			Tokens:          u.TotalTokens,
			SuccessRate:     u.SuccessRate(),
			AvgResponseTime: u.AvgResponseTime,
		}
	}
	if out.Summary.TotalAPICalls > 0 {
		out.Summary.AvgResponseTime = weighted / float64(out.Summary.TotalAPICalls)
	}
	out.Summary.TotalCost = round6(out.Summary.TotalCost)

	out.Budget = BudgetStatus(req.BudgetLimit, spent)
	return out, nil
}

// BudgetStatus reports spend against an advisory limit. A limit <= 0 means
// no budget is set and it is never exceeded.
func BudgetStatus(limit, spent float64) Budget {
	b := Budget{Limit: limit, SpentToday: round6(spent)}
	if limit > 0 {
		b.Remaining = round6(math.Max(limit-spent, 0))
		b.Exceeded = spent >= limit
	}
	return b
}

func bucketFor(score float64) int {
	switch {
	case score < 20:
		return 0
	case score < 40:
		return 1
	case score < 60:
		return 2
	case score < 80:
		return 3
	default:
		return 4
	}
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
