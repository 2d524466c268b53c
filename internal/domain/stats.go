package domain

// EmailStatistics aggregates the approval email tracking log.
type EmailStatistics struct {
	Total           int     `json:"total"`
	Sent            int     `json:"sent"`
	Delivered       int     `json:"delivered"`
	Opened          int     `json:"opened"`
	Failed          int     `json:"failed"`
	FirstTimeEmails int     `json:"firstTimeEmails"`
	ResendEmails    int     `json:"resendEmails"`
	DeliveryRate    float64 `json:"deliveryRate"`
	OpenRate        float64 `json:"openRate"`
	FailureRate     float64 `json:"failureRate"`
}

// DailyCount is the number of emails sent on one UTC calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RecentEmailActivity summarizes the last seven days of sends.
type RecentEmailActivity struct {
	Last7Days  int          `json:"last7Days"`
	DailyStats []DailyCount `json:"dailyStats"`
}

// EmailAnalytics is the approval email analytics report.
type EmailAnalytics struct {
	Statistics     EmailStatistics     `json:"statistics"`
	RecentActivity RecentEmailActivity `json:"recentActivity"`
}

// DashboardStats is the headline numbers for the admin home page.
type DashboardStats struct {
	TotalUsers     int    `json:"totalUsers"`
	TotalWaitlist  int    `json:"totalWaitlist"`
	BetaInvited    int    `json:"betaInvited"`
	BetaActivated  int    `json:"betaActivated"`
	ConversionRate string `json:"conversionRate"`
	RecentSignups  int    `json:"recentSignups"`
}

// ReferrerCount is the number of waitlist signups from one source.
type ReferrerCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Analytics is the user and waitlist growth report.
type Analytics struct {
	TotalUsers     int             `json:"totalUsers"`
	ActiveUsers    int             `json:"activeUsers"`
	NewUsers       int             `json:"newUsers"`
	ConversionRate string          `json:"conversionRate"`
	TotalWaitlist  int             `json:"totalWaitlist"`
	ApprovedUsers  int             `json:"approvedUsers"`
	PendingUsers   int             `json:"pendingUsers"`
	RecentActivity int             `json:"recentActivity"`
	TopReferrers   []ReferrerCount `json:"topReferrers"`
}
