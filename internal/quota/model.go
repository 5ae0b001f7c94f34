package quota

import "time"

// DateKey formats t as the ledger's calendar-date key. Callers pass UTC so
// the day rolls over at midnight UTC everywhere.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Admitted   bool `json:"admitted"`
	Limit      int  `json:"limit"`
	Count      int  `json:"count"`
	Subscribed bool `json:"subscribed"`
}

// Status is the admin API view of a user's current usage.
type Status struct {
	Date              string `json:"date"`
	RequestsToday     int    `json:"requests_today"`
	DailyLimit        int    `json:"daily_limit"`
	Subscribed        bool   `json:"subscribed"`
	BurstUsedMinute   int    `json:"burst_used_minute"`
	BurstLimitMinute  int    `json:"burst_limit_minute"`
	RemainingRequests int    `json:"remaining_requests"`
}
