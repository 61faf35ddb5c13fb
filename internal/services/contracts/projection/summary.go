package projection

import "github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"

// StatusCount is the number of contracts in one status.
type StatusCount struct {
	Status contract.Status
	Count  int
}

// Summary aggregates the dashboard counters.
type Summary struct {
	Total     int
	Active    int
	Pending   int
	Completed int
	Signed    int
	Revoked   int
	// ByStatus has one entry per status in lifecycle order, zeros included.
	ByStatus []StatusCount
}

// Summarize counts contracts per bucket and per status.
func Summarize(contracts []contract.Contract) Summary {
	counts := make(map[contract.Status]int, len(contracts))
	summary := Summary{Total: len(contracts)}
	for _, c := range contracts {
		counts[c.Status]++
		if InBucket(c.Status, BucketActive) {
			summary.Active++
		}
		if InBucket(c.Status, BucketPending) {
			summary.Pending++
		}
		if InBucket(c.Status, BucketCompleted) {
			summary.Completed++
		}
		if InBucket(c.Status, BucketRevoked) {
			summary.Revoked++
		}
	}
	summary.Signed = counts[contract.StatusSigned]
	for _, status := range contract.Statuses() {
		summary.ByStatus = append(summary.ByStatus, StatusCount{Status: status, Count: counts[status]})
	}
	return summary
}
