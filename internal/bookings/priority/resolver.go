// Package priority decides whether a request may displace the bookings it
// collides with.
package priority

import (
	"fmt"

	"reservo/pkg/model"
)

type PreemptionOutcome struct {
	Admitted bool
	// Preempt lists the bookings that must move to preempted for the
	// candidate to be admitted. Empty unless Admitted.
	Preempt []string
	// Blocking holds the conflicts that prevented admission.
	Blocking []model.Conflict
	Reason   string
}

// TryPreempt admits the candidate only when every conflict is a pending or
// approved booking of strictly lower priority. Otherwise nothing is
// preempted.
func TryPreempt(candidatePriority int, conflicts []model.Conflict) PreemptionOutcome {
	if len(conflicts) == 0 {
		return PreemptionOutcome{Admitted: true}
	}

	var preempt []string
	var blocking []model.Conflict
	for _, c := range conflicts {
		if ok, _ := preemptable(candidatePriority, c); ok {
			preempt = append(preempt, c.BookingID)
			continue
		}
		blocking = append(blocking, c)
	}

	if len(blocking) > 0 {
		_, reason := preemptable(candidatePriority, blocking[0])
		return PreemptionOutcome{Blocking: blocking, Reason: reason}
	}
	return PreemptionOutcome{Admitted: true, Preempt: preempt}
}

func preemptable(candidatePriority int, c model.Conflict) (bool, string) {
	switch {
	case !c.IsBooking():
		return false, fmt.Sprintf("%s conflicts cannot be preempted", c.Type)
	case c.Status != model.BookingPending && c.Status != model.BookingApproved:
		return false, fmt.Sprintf("booking %s is %s", c.BookingID, c.Status)
	case c.Priority >= candidatePriority:
		return false, fmt.Sprintf("booking %s has priority %d, request has %d", c.BookingID, c.Priority, candidatePriority)
	}
	return true, ""
}
