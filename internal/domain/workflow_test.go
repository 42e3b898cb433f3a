package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    GrievanceStatus
		to      GrievanceStatus
		allowed bool
	}{
		{StatusSubmitted, StatusInReview, true},
		{StatusSubmitted, StatusResolved, false},
		{StatusSubmitted, StatusClosed, false},
		{StatusInReview, StatusInProgress, true},
		{StatusInReview, StatusResolved, true},
		{StatusInReview, StatusEscalated, true},
		{StatusInProgress, StatusResolved, true},
		{StatusInProgress, StatusEscalated, true},
		{StatusInProgress, StatusSubmitted, false},
		{StatusEscalated, StatusInProgress, true},
		{StatusEscalated, StatusResolved, false},
		{StatusResolved, StatusClosed, true},
		{StatusResolved, StatusInProgress, false},
		{StatusClosed, StatusInReview, false},
		{StatusClosed, StatusResolved, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestClosedIsTerminal(t *testing.T) {
	assert.Empty(t, NextStatuses(StatusClosed))
	for _, status := range Statuses() {
		assert.False(t, CanTransition(StatusClosed, status))
	}
}

func TestCanEscalate(t *testing.T) {
	assert.True(t, CanEscalate(StatusInReview))
	assert.True(t, CanEscalate(StatusInProgress))
	assert.False(t, CanEscalate(StatusSubmitted))
	assert.False(t, CanEscalate(StatusResolved))
	assert.False(t, CanEscalate(StatusClosed))
	assert.False(t, CanEscalate(StatusEscalated))
}

func TestAcceptsFeedback(t *testing.T) {
	assert.True(t, AcceptsFeedback(StatusResolved))
	assert.True(t, AcceptsFeedback(StatusClosed))
	assert.False(t, AcceptsFeedback(StatusSubmitted))
	assert.False(t, AcceptsFeedback(StatusInProgress))
	assert.False(t, AcceptsFeedback(StatusEscalated))
}
