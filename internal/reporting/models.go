package reporting

import "time"

// AnalyticsRequest selects the reporting window. Period is day, week or month;
// empty means week. BudgetLimit is the advisory daily spend limit in USD.
type AnalyticsRequest struct {
	Period      string  `json:"period"`
	BudgetLimit float64 `json:"budget_limit"`
}

type Summary struct {
	TotalSubmissions     int     `json:"total_submissions"`
	SpamSubmissions      int     `json:"spam_submissions"`
	ApprovedSubmissions  int     `json:"approved_submissions"`
	WhitelistSubmissions int     `json:"whitelist_submissions"`
	SpamRate             float64 `json:"spam_rate"`

	TotalAPICalls   int     `json:"total_api_calls"`
	TotalCost       float64 `json:"total_cost"`
	TotalTokens     int     `json:"total_tokens"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

type ProviderBreakdown struct {
	Calls           int     `json:"calls"`
	Cost            float64 `json:"cost"`
	Tokens          int     `json:"tokens"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

type DayBreakdown struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	Spam     int    `json:"spam"`
	Approved int    `json:"approved"`
}

type FormBreakdown struct {
	FormType string `json:"form_type"`
	FormID   string `json:"form_id"`
	Total    int    `json:"total"`
	Spam     int    `json:"spam"`
}

// ScoreBucket counts submissions whose score falls in [Min, Max); the last
// bucket includes 100.
type ScoreBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Budget is informational. Nothing blocks provider calls when it is exceeded.
type Budget struct {
	Limit      float64 `json:"limit"`
	SpentToday float64 `json:"spent_today"`
	Remaining  float64 `json:"remaining"`
	Exceeded   bool    `json:"exceeded"`
}

type Analytics struct {
	Period   string    `json:"period"`
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`

	Summary          Summary                      `json:"summary"`
	Providers        map[string]ProviderBreakdown `json:"providers"`
	DailyBreakdown   []DayBreakdown               `json:"daily_breakdown"`
	FormBreakdown    []FormBreakdown              `json:"form_breakdown"`
	SpamDistribution []ScoreBucket                `json:"spam_distribution"`
	Budget           Budget                       `json:"budget"`
}
