package entity

import (
	"strings"
	"time"
)

// Purchase states recorded by the ledger
const (
	PurchaseStateInProgress                     = "in_progress"
	PurchaseStateSuccessful                     = "successful"
	PurchaseStateTestSuccessful                 = "test_successful"
	PurchaseStateGiftReceiverPurchaseSuccessful = "gift_receiver_purchase_successful"
	PurchaseStateFailed                         = "failed"
)

var successfulPurchaseStates = map[string]bool{
	PurchaseStateSuccessful:                     true,
	PurchaseStateTestSuccessful:                 true,
	PurchaseStateGiftReceiverPurchaseSuccessful: true,
}

// Transaction is a read-only view of a completed sale in the ledger.
// All money fields are in minor currency units. PriceCents is the per-unit
// perceived price and TaxCents is the tax collected at checkout.
type Transaction struct {
	ID            int64
	ExternalID    string
	CreatedAt     time.Time
	Country       string
	IPCountry     string
	IPState       string
	ZipCode       string
	PriceCents    int64
	Quantity      int64
	TaxCents      int64
	PurchaseState string
	Refunded      bool
	BusinessVATID string
}

// IsSuccessful reports whether the purchase reached a successful completion state
func (t *Transaction) IsSuccessful() bool {
	return successfulPurchaseStates[t.PurchaseState]
}

// HasBusinessVATID reports whether the purchaser supplied a tax registration id
func (t *Transaction) HasBusinessVATID() bool {
	return strings.TrimSpace(t.BusinessVATID) != ""
}

// SuccessfulPurchaseStates returns the states counted as completed sales
func SuccessfulPurchaseStates() []string {
	return []string{
		PurchaseStateSuccessful,
		PurchaseStateTestSuccessful,
		PurchaseStateGiftReceiverPurchaseSuccessful,
	}
}
