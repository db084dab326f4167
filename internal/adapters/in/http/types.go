package http

import (
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/sync/protocol"
)

// Error is the body of every non-2xx response. Reason carries a stable code
// for proof rejections and ledger refusals.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Address is a street address with its coordinates.
type Address struct {
	Text string  `json:"address" validate:"required"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"gte=-180,lte=180"`
}

func (a Address) input() commands.AddressInput {
	return commands.AddressInput{Text: a.Text, Lat: a.Lat, Lng: a.Lng}
}

// NewOrder is the body of POST /orders.
type NewOrder struct {
	Pickup         Address `json:"pickup" validate:"required"`
	Dropoff        Address `json:"dropoff" validate:"required"`
	Method         string  `json:"method" validate:"required"`
	RecipientName  string  `json:"recipientName" validate:"required"`
	RecipientPhone string  `json:"recipientPhone" validate:"required"`
	IssuerName     string  `json:"issuerName" validate:"required"`
	PayerType      string  `json:"payerType" validate:"required,oneof=requester recipient"`
	PartialAmount  *int64  `json:"partialAmount,omitempty" validate:"omitempty,gt=0"`
}

// AdvanceOrder moves an order to the next courier-driven status.
type AdvanceOrder struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// CompleteOrder carries the scanned proof-of-delivery token.
type CompleteOrder struct {
	Token      proof.Token `json:"token"`
	Location   *Point      `json:"location,omitempty"`
	DeviceInfo string      `json:"deviceInfo"`
}

// NewCommissionAccount opens a courier ledger.
type NewCommissionAccount struct {
	RatePercent    float64 `json:"ratePercent" validate:"gte=0,lte=100"`
	IsRevenueShare bool    `json:"isRevenueShare"`
	MinimumBalance int64   `json:"minimumBalance" validate:"gte=0"`
}

// Recharge credits a courier's prepaid balance.
type Recharge struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// Refund names the order whose deduction is reversed.
type Refund struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// Order is the wire order plus the courier's last reported position.
type Order struct {
	protocol.Order
	Location *Point `json:"location,omitempty"`
}

// CreatedOrder is the order plus the proof token the requester shows the
// courier at handover.
type CreatedOrder struct {
	Order Order       `json:"order"`
	Token proof.Token `json:"token"`
}

// CompletedOrder is the closed order plus the ledger line it produced, if any.
type CompletedOrder struct {
	Order      Order        `json:"order"`
	Settlement *Transaction `json:"settlement,omitempty"`
}

// CommissionAccount is the public view of a courier ledger.
type CommissionAccount struct {
	CourierID           string  `json:"courierId"`
	Balance             int64   `json:"balance"`
	MinimumBalance      int64   `json:"minimumBalance"`
	RatePercent         float64 `json:"ratePercent"`
	IsSuspended         bool    `json:"isSuspended"`
	IsRevenueShare      bool    `json:"isRevenueShare"`
	LowBalanceThreshold int64   `json:"lowBalanceThreshold"`
	CanAcceptWork       bool    `json:"canAcceptWork"`
}

// Transaction is one ledger line.
type Transaction struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balanceBefore"`
	BalanceAfter  int64     `json:"balanceAfter"`
	OrderID       string    `json:"orderId,omitempty"`
	Sequence      int64     `json:"sequence"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LedgerEntry is the account state after a ledger write.
type LedgerEntry struct {
	Account     CommissionAccount `json:"account"`
	Transaction Transaction       `json:"transaction"`
}

// TransactionPage is one page of a courier's ledger, newest first.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	PageSize     int           `json:"pageSize"`
}

// LedgerAudit compares the stored balance with a replay of the ledger.
type LedgerAudit struct {
	Consistent      bool   `json:"consistent"`
	StoredBalance   int64  `json:"storedBalance"`
	ReplayedBalance int64  `json:"replayedBalance"`
	Transactions    int    `json:"transactions"`
	Drift           string `json:"drift,omitempty"`
}

// Eligibility tells whether a courier may take new orders.
type Eligibility struct {
	CourierID     string `json:"courierId"`
	CanAcceptWork bool   `json:"canAcceptWork"`
}

func toOrder(v queries.OrderView) Order {
	o := Order{Order: protocol.FromSnapshot(v.Order)}
	if v.Location != nil {
		o.Location = &Point{Lat: v.Location.Point.Lat(), Lng: v.Location.Point.Lng()}
	}
	return o
}

func toTransaction(t commission.Transaction) Transaction {
	tx := Transaction{
		ID:            t.ID.String(),
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Sequence:      t.Sequence,
		CreatedAt:     t.CreatedAt.UTC(),
	}
	if t.OrderID != nil {
		tx.OrderID = t.OrderID.String()
	}
	return tx
}

func toAccountView(v queries.CommissionAccountView) CommissionAccount {
	return CommissionAccount{
		CourierID:           v.CourierID.String(),
		Balance:             v.Balance,
		MinimumBalance:      v.MinimumBalance,
		RatePercent:         v.RatePercent,
		IsSuspended:         v.IsSuspended,
		IsRevenueShare:      v.IsRevenueShare,
		LowBalanceThreshold: v.LowBalanceThreshold,
		CanAcceptWork:       v.CanAcceptWork,
	}
}

func toAccountSnapshot(s commission.Snapshot) CommissionAccount {
	view := CommissionAccount{
		CourierID:           s.CourierID.String(),
		Balance:             s.Balance,
		MinimumBalance:      s.MinimumBalance,
		RatePercent:         s.RatePercent,
		IsSuspended:         s.IsSuspended,
		IsRevenueShare:      s.IsRevenueShare,
		LowBalanceThreshold: s.LowBalanceThreshold,
	}
	if a, err := commission.RestoreAccount(s); err == nil {
		view.CanAcceptWork = a.CanAcceptWork()
	}
	return view
}

func toLedgerEntry(r commands.LedgerResult) LedgerEntry {
	return LedgerEntry{Account: toAccountSnapshot(r.Account), Transaction: toTransaction(r.Transaction)}
}
