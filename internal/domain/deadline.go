package domain

import "time"

// deadlineOffsets maps priority to the number of days allowed for resolution.
var deadlineOffsets = map[GrievancePriority]int{
	PriorityLow:    14,
	PriorityMedium: 7,
	PriorityHigh:   3,
	PriorityUrgent: 1,
}

// ComputeDeadline derives the resolution deadline from priority and creation
// time. The deadline is fixed for the life of the grievance.
func ComputeDeadline(p GrievancePriority, createdAt time.Time) time.Time {
	days, ok := deadlineOffsets[p]
	if !ok {
		days = deadlineOffsets[PriorityMedium]
	}
	return createdAt.Add(time.Duration(days) * 24 * time.Hour)
}
