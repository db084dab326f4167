package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrCreateOrderCommandIsNotConstructed is returned by Validate on a zero value.
var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// AddressInput is an address as entered by the requester.
type AddressInput struct {
	Text string
	Lat  float64
	Lng  float64
}

// CreateOrderParams groups the raw inputs of NewCreateOrderCommand.
type CreateOrderParams struct {
	RequesterID    kernel.UUID
	IssuerName     string
	Pickup         AddressInput
	Dropoff        AddressInput
	Method         string
	RecipientName  string
	RecipientPhone string
	PayerType      string
	PartialAmount  *int64
}

// CreateOrderCommand asks for a new pending order. On success the requester
// gets the order and the proof-of-delivery token to hand to the recipient.
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	requesterID    kernel.UUID
	issuerName     string
	pickup         kernel.Address
	dropoff        kernel.Address
	method         order.Method
	recipientName  string
	recipientPhone string
	payerType      order.PayerType
	partialAmount  *int64

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates every field and reports all problems at once.
func NewCreateOrderCommand(p CreateOrderParams) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRequester(p.RequesterID),
		cmd.setIssuer(p.IssuerName),
		cmd.setRoute(p.Pickup, p.Dropoff),
		cmd.setMethod(p.Method),
		cmd.setRecipient(p.RecipientName, p.RecipientPhone),
		cmd.setPayment(p.PayerType, p.PartialAmount),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// RequesterID returns the customer placing the order.
func (c CreateOrderCommand) RequesterID() kernel.UUID { return c.requesterID }

// IssuerName is the display name printed on the proof token.
func (c CreateOrderCommand) IssuerName() string { return c.issuerName }

// Pickup returns the validated pickup address.
func (c CreateOrderCommand) Pickup() kernel.Address { return c.pickup }

// Dropoff returns the validated dropoff address.
func (c CreateOrderCommand) Dropoff() kernel.Address { return c.dropoff }

// Method returns the requested delivery method.
func (c CreateOrderCommand) Method() order.Method { return c.method }

// RecipientName returns the trimmed recipient name.
func (c CreateOrderCommand) RecipientName() string { return c.recipientName }

// RecipientPhone returns the recipient's contact number.
func (c CreateOrderCommand) RecipientPhone() string { return c.recipientPhone }

// PayerType tells who pays for the delivery.
func (c CreateOrderCommand) PayerType() order.PayerType { return c.payerType }

// PartialAmount is set only for split payments.
func (c CreateOrderCommand) PartialAmount() *int64 { return c.partialAmount }

func (c *CreateOrderCommand) setRequester(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredError("requester id")
	}
	c.requesterID = id
	return nil
}

func (c *CreateOrderCommand) setIssuer(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("issuer name")
	}
	c.issuerName = name
	return nil
}

func (c *CreateOrderCommand) setRoute(pickup, dropoff AddressInput) error {
	p, pErr := toAddress(pickup)
	d, dErr := toAddress(dropoff)
	if err := errors.Join(pErr, dErr); err != nil {
		return err
	}
	c.pickup = p
	c.dropoff = d
	return nil
}

func (c *CreateOrderCommand) setMethod(method string) error {
	m, err := order.ParseMethod(method)
	if err != nil {
		return err
	}
	c.method = m
	return nil
}

func (c *CreateOrderCommand) setRecipient(name, phone string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	var err error
	if name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("recipient name"))
	}
	if phone == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("recipient phone"))
	}
	if err != nil {
		return err
	}
	c.recipientName = name
	c.recipientPhone = phone
	return nil
}

func (c *CreateOrderCommand) setPayment(payer string, partial *int64) error {
	if payer == "" {
		payer = string(order.PayerRequester)
	}
	pt := order.PayerType(payer)
	if err := pt.Validate(); err != nil {
		return err
	}
	if partial != nil && *partial <= 0 {
		return errs.NewValueIsOutOfRangeError("partial amount", *partial, int64(1), "price")
	}
	c.payerType = pt
	c.partialAmount = partial
	return nil
}

func toAddress(in AddressInput) (kernel.Address, error) {
	point, err := kernel.NewGeoPoint(in.Lat, in.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(in.Text, point)
}
