package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrGetActiveOrdersQueryIsNotConstructed is returned by Validate on a zero value.
var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery lists every non-terminal order an actor takes part
// in, as requester or as courier. It is the content of a resync snapshot.
type GetActiveOrdersQuery struct {
	actorID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery requires the actor.
func NewGetActiveOrdersQuery(actorID kernel.UUID) (GetActiveOrdersQuery, error) {
	if actorID.Validate() != nil {
		return GetActiveOrdersQuery{}, errs.NewValueIsRequiredError("actor id")
	}
	return GetActiveOrdersQuery{actorID: actorID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// ActorID returns the requester or courier asking.
func (q GetActiveOrdersQuery) ActorID() kernel.UUID { return q.actorID }
