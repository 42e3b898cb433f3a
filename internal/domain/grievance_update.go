package domain

import "time"

// GrievanceUpdate is an append-only timeline entry attached to a grievance.
// ActorID is nil for system-generated entries and anonymous submissions.
type GrievanceUpdate struct {
	ID           string
	GrievanceID  string
	ActorID      *string
	Message      string
	StatusChange *GrievanceStatus
	CreatedAt    time.Time
}
