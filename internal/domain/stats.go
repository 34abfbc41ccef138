package domain

// Stats is a count rollup computed by the remote service. The zero value is
// what views show when the stats endpoint is unavailable.
type Stats struct {
	Total    int
	Pending  int
	Answered int
}

// DashboardCounts is the read-only projection shown on the admin dashboard.
type DashboardCounts struct {
	Members          int
	Events           int
	Stories          int
	PendingQuestions int
}
