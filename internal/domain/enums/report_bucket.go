package enums

import "strings"

// ReportBucket is the coarse grouping the report queue exposes on top of
// review statuses.
type ReportBucket string

const (
	ReportBucketOpen        ReportBucket = "open"
	ReportBucketUnderReview ReportBucket = "under_review"
	ReportBucketResolved    ReportBucket = "resolved"
	ReportBucketDismissed   ReportBucket = "dismissed"
)

func (b ReportBucket) Statuses() []ReviewStatus {
	switch b {
	case ReportBucketOpen:
		return []ReviewStatus{ReviewStatusPending, ReviewStatusEscalated}
	case ReportBucketUnderReview:
		return []ReviewStatus{ReviewStatusInReview}
	case ReportBucketResolved:
		return []ReviewStatus{ReviewStatusApproved}
	case ReportBucketDismissed:
		return []ReviewStatus{ReviewStatusRejected}
	}
	return nil
}

func ParseReportBucket(value string) (ReportBucket, bool) {
	b := ReportBucket(strings.ToLower(strings.TrimSpace(value)))
	if len(b.Statuses()) == 0 {
		return "", false
	}
	return b, true
}
