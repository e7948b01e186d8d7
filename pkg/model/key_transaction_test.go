package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyTransaction_EffectiveStatus(t *testing.T) {
	tx := &KeyTransaction{
		Status:           KeyCheckedOut,
		CheckedOutAt:     at(9, 0),
		ExpectedReturnAt: at(12, 0),
	}

	assert.Equal(t, KeyCheckedOut, tx.EffectiveStatus(at(11, 0)))
	assert.Equal(t, KeyCheckedOut, tx.EffectiveStatus(at(12, 0)))
	assert.Equal(t, KeyOverdue, tx.EffectiveStatus(at(13, 0)))
	assert.True(t, tx.IsOpen())

	returned := at(14, 0)
	tx.Status = KeyReturned
	tx.CheckedInAt = &returned
	assert.Equal(t, KeyReturned, tx.EffectiveStatus(at(15, 0)))
	assert.False(t, tx.IsOpen())
}

func TestResourceIssue_Blocks(t *testing.T) {
	issue := &ResourceIssue{
		Classification: IssueMaintenance,
		Status:         IssueReported,
		ReportedAt:     at(8, 0),
	}
	window := iv(10, 0, 11, 0)

	assert.False(t, issue.Blocks(window), "reported issues do not block yet")

	issue.Status = IssueInProgress
	assert.True(t, issue.Blocks(window))

	until := at(10, 0)
	issue.BlocksUntil = &until
	assert.False(t, issue.Blocks(window))

	issue.BlocksUntil = nil
	issue.Classification = IssueCosmetic
	assert.False(t, issue.Blocks(window))
}

func TestBookingStatus(t *testing.T) {
	for _, s := range OccupyingStatuses {
		assert.True(t, s.IsOccupying())
		assert.False(t, s.IsTerminal())
	}
	for _, s := range []BookingStatus{BookingRejected, BookingCancelled, BookingPreempted, BookingCompleted, BookingExpired} {
		assert.True(t, s.IsTerminal())
		assert.False(t, s.IsOccupying())
	}
}
