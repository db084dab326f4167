// Package commission implements the prepaid commission ledger of
// revenue-share couriers.
//
// A courier recharges a balance upfront. Every completed order deducts the
// commission from it. A balance at or below zero suspends the courier from
// new work until the next recharge. Each balance change appends a Transaction
// carrying the before and after balance, so replaying the log in order
// reproduces the stored balance exactly.
package commission
