package enums

import (
	"sort"
	"testing"
)

func TestPriorityRankOrdering(t *testing.T) {
	submitted := []Priority{PriorityLow, PriorityUrgent, PriorityMedium, PriorityHigh}

	sort.SliceStable(submitted, func(i, j int) bool {
		return submitted[i].Rank() > submitted[j].Rank()
	})

	want := []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
	for i, priority := range want {
		if submitted[i] != priority {
			t.Fatalf("position %d: got %s want %s", i, submitted[i], priority)
		}
	}
}

func TestParsePriorityRejectsUnknown(t *testing.T) {
	if _, ok := ParsePriority("URGENT"); !ok {
		t.Fatalf("parse must be case insensitive")
	}
	if _, ok := ParsePriority("asap"); ok {
		t.Fatalf("unknown priority must not parse")
	}
}

func TestReviewStatusTerminal(t *testing.T) {
	terminal := map[ReviewStatus]bool{
		ReviewStatusPending:   false,
		ReviewStatusInReview:  false,
		ReviewStatusApproved:  true,
		ReviewStatusRejected:  true,
		ReviewStatusEscalated: false,
	}

	for status, want := range terminal {
		if status.Terminal() != want {
			t.Fatalf("%s: Terminal() = %v, want %v", status, status.Terminal(), want)
		}
	}
}

func TestReportBucketStatuses(t *testing.T) {
	cases := map[ReportBucket][]ReviewStatus{
		ReportBucketOpen:        {ReviewStatusPending, ReviewStatusEscalated},
		ReportBucketUnderReview: {ReviewStatusInReview},
		ReportBucketResolved:    {ReviewStatusApproved},
		ReportBucketDismissed:   {ReviewStatusRejected},
	}

	for bucket, want := range cases {
		got := bucket.Statuses()
		if len(got) != len(want) {
			t.Fatalf("%s: got %v want %v", bucket, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: got %v want %v", bucket, got, want)
			}
		}
	}

	if _, ok := ParseReportBucket("closed"); ok {
		t.Fatalf("unknown bucket must not parse")
	}
}

func TestParseContentType(t *testing.T) {
	for _, raw := range []string{"music", "Album", " podcast ", "comment", "forum_topic", "forum_reply"} {
		if _, ok := ParseContentType(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := ParseContentType("movie"); ok {
		t.Fatalf("unknown content type must not parse")
	}
}
