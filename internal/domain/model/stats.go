package model

type DashboardStats struct {
	PendingCount    int    `json:"pending_count"`
	ApprovedToday   int    `json:"approved_today"`
	OpenReports     int    `json:"open_reports"`
	AvgResponseTime string `json:"avg_response_time"`
}
