package enums

type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusInReview  ReviewStatus = "in_review"
	ReviewStatusApproved  ReviewStatus = "approved"
	ReviewStatusRejected  ReviewStatus = "rejected"
	ReviewStatusEscalated ReviewStatus = "escalated"
)

// Terminal reports whether no further transition may change the status.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusInReview, ReviewStatusApproved, ReviewStatusRejected, ReviewStatusEscalated:
		return true
	}
	return false
}
