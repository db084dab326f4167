package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──> Accepted ──> Enroute ──> PickedUp ──> Delivering ──> Completed
//	   │            │           │
//	   ├──> Declined│           │
//	   └────────────┴───────────┴──> Cancelled
//
// Completed, Cancelled and Declined are terminal. Once an order is PickedUp it
// can no longer be cancelled.
type Status int

const (
	// Unknown catches uninitialised values.
	Unknown Status = iota
	Pending
	Accepted
	Enroute
	PickedUp
	Delivering
	Completed
	Cancelled
	Declined
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Accepted:   "accepted",
		Enroute:    "enroute",
		PickedUp:   "picked_up",
		Delivering: "delivering",
		Completed:  "completed",
		Cancelled:  "cancelled",
		Declined:   "declined",
	}
}

// getTransitions is the complete table of legal moves. Anything absent is an
// InvalidTransition.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing edges
	return map[Status][]Status{
		Pending:    {Accepted, Cancelled, Declined},
		Accepted:   {Enroute, Cancelled},
		Enroute:    {PickedUp, Cancelled},
		PickedUp:   {Delivering},
		Delivering: {Completed},
	}
}

// ParseStatus maps the wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a known status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if s <= Unknown || s > Declined {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// MarshalText encodes the wire name, e.g. "picked_up".
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the wire names produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Declined
}

// ActiveStatuses lists the non-terminal statuses in lifecycle order.
func ActiveStatuses() []Status {
	return []Status{Pending, Accepted, Enroute, PickedUp, Delivering}
}

// IsPhysicalHandling reports whether the status describes the courier moving
// the parcel. Only the assigned courier may enter these states.
func (s Status) IsPhysicalHandling() bool {
	return s == Enroute || s == PickedUp || s == Delivering
}

// RequiresCourier reports whether an order in this status must carry a
// courier id.
func (s Status) RequiresCourier() bool {
	return s == Accepted || s.IsPhysicalHandling() || s == Completed
}

// CanTransitionTo checks the transition table without side effects.
func (s Status) CanTransitionTo(target Status) error {
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return nil
		}
	}
	return NewTransitionError(s, target)
}

// ValidateCanHaveCourier checks that the courier assignment matches the status.
// Cancelled orders may or may not have a courier depending on when they were
// cancelled.
func (s Status) ValidateCanHaveCourier(courier bool) error {
	if courier && (s == Pending || s == Declined) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a courier", s),
		)
	}

	if !courier && s.RequiresCourier() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no courier", s),
		)
	}

	return nil
}
