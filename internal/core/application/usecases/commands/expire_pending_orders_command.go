package commands

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrExpirePendingOrdersCommandIsNotConstructed is returned by Validate on a
// zero value.
var ErrExpirePendingOrdersCommandIsNotConstructed = errors.New(
	"ExpirePendingOrdersCommand must be created via NewDeclineUnclaimedCommand or NewAutoCancelStalePendingCommand",
)

// Cancel reasons recorded by the sweeps.
const (
	ReasonNoDriversAvailable = "no drivers available"
	ReasonStalePending       = "auto-cancelled: no courier accepted in time"

	defaultSweepBatch = 100
)

// ExpirePendingOrdersCommand closes unassigned pending orders older than a
// threshold. The two dispatcher sweeps share it and differ only in target:
// the driver-search timeout declines, the stale-order sweep cancels.
type ExpirePendingOrdersCommand struct {
	target    order.Status
	olderThan time.Duration
	reason    string
	batch     int

	guard guard.ConstructorGuard
}

// NewDeclineUnclaimedCommand builds the driver-search timeout sweep.
func NewDeclineUnclaimedCommand(window time.Duration) (ExpirePendingOrdersCommand, error) {
	return newExpirePendingOrdersCommand(order.Declined, window, ReasonNoDriversAvailable)
}

// NewAutoCancelStalePendingCommand builds the stale pending order sweep.
func NewAutoCancelStalePendingCommand(threshold time.Duration) (ExpirePendingOrdersCommand, error) {
	return newExpirePendingOrdersCommand(order.Cancelled, threshold, ReasonStalePending)
}

func newExpirePendingOrdersCommand(target order.Status, olderThan time.Duration, reason string) (ExpirePendingOrdersCommand, error) {
	if olderThan <= 0 {
		return ExpirePendingOrdersCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"sweep threshold", fmt.Errorf("%s is not positive", olderThan),
		)
	}
	return ExpirePendingOrdersCommand{
		target:    target,
		olderThan: olderThan,
		reason:    reason,
		batch:     defaultSweepBatch,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through one of the constructors.
func (c ExpirePendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExpirePendingOrdersCommandIsNotConstructed)
}

// Target is order.Declined or order.Cancelled.
func (c ExpirePendingOrdersCommand) Target() order.Status { return c.target }

// OlderThan is the minimum age of a candidate.
func (c ExpirePendingOrdersCommand) OlderThan() time.Duration { return c.olderThan }

// Reason is stored as the cancel reason of every expired order.
func (c ExpirePendingOrdersCommand) Reason() string { return c.reason }

// Batch caps the candidates loaded per run.
func (c ExpirePendingOrdersCommand) Batch() int { return c.batch }
