package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrCompleteWithProofCommandIsNotConstructed is returned by Validate on a zero
// value.
var ErrCompleteWithProofCommandIsNotConstructed = errors.New(
	"CompleteWithProofCommand must be created via NewCompleteWithProofCommand constructor",
)

// CompleteWithProofCommand is a courier scanning the recipient's token.
type CompleteWithProofCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	scannedBy kernel.UUID
	token     proof.Token
	context   proof.ScanContext

	guard guard.ConstructorGuard
}

// NewCompleteWithProofCommand requires the order, the scanning courier and a
// signed token. The token itself is verified by the handler, not here.
func NewCompleteWithProofCommand(
	orderID, scannedBy kernel.UUID,
	token proof.Token,
	scan proof.ScanContext,
) (CompleteWithProofCommand, error) {
	cmd := CompleteWithProofCommand{
		token:   token,
		context: scan,
		guard:   guard.NewConstructorGuard(),
	}

	var sigErr error
	if token.Signature == "" {
		sigErr = errs.NewValueIsRequiredError("token signature")
	}

	if err := errors.Join(
		requireID("order id", orderID, &cmd.orderID),
		requireID("scanner id", scannedBy, &cmd.scannedBy),
		sigErr,
	); err != nil {
		return CompleteWithProofCommand{}, err
	}
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CompleteWithProofCommand) Validate() error {
	return c.guard.Validate(ErrCompleteWithProofCommandIsNotConstructed)
}

// OrderID returns the order being closed.
func (c CompleteWithProofCommand) OrderID() kernel.UUID { return c.orderID }

// ScannedBy returns the courier who scanned the token.
func (c CompleteWithProofCommand) ScannedBy() kernel.UUID { return c.scannedBy }

// Token returns the token as scanned.
func (c CompleteWithProofCommand) Token() proof.Token { return c.token }

// ScanContext returns where and how the scan happened, kept for the audit log.
func (c CompleteWithProofCommand) ScanContext() proof.ScanContext { return c.context }
