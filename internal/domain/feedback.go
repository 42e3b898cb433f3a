package domain

import "time"

// Feedback rating bounds.
const (
	FeedbackRatingMin = 1
	FeedbackRatingMax = 5
)

// Feedback is the one-shot satisfaction record a submitter leaves after
// resolution. At most one per grievance; never mutated once created.
type Feedback struct {
	ID          string
	GrievanceID string
	UserID      *string
	Rating      int
	Comment     *string
	CreatedAt   time.Time
}

// ValidRating reports whether the rating is within the accepted scale.
func ValidRating(r int) bool {
	return r >= FeedbackRatingMin && r <= FeedbackRatingMax
}
