package machine

import (
	"encoding/json"

	"github.com/buildtall-systems/sodamachine/internal/fsm"
	"github.com/shopspring/decimal"
)

// PaymentType tells the ledger how credit on an order was funded.
type PaymentType string

const (
	PaymentCash PaymentType = "Cash"
	PaymentSMS  PaymentType = "SMS"
)

// OrderStatus is the ledger's verdict after a product was added to an order.
type OrderStatus int

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusProductShipped
	OrderStatusInsufficientCreditAmount
	OrderStatusProductOutOfStock
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusProductShipped:           "ProductShipped",
	OrderStatusInsufficientCreditAmount: "InsufficientCreditAmount",
	OrderStatusProductOutOfStock:        "ProductOutOfStock",
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseOrderStatus maps a ledger status name to an OrderStatus.
// Unrecognized names yield OrderStatusUnknown.
func ParseOrderStatus(name string) OrderStatus {
	for status, n := range orderStatusNames {
		if n == name {
			return status
		}
	}
	return OrderStatusUnknown
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON never fails: values the ledger may add later, or values of
// an unexpected JSON type, decode as OrderStatusUnknown.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		*s = OrderStatusUnknown
		return nil
	}
	*s = ParseOrderStatus(name)
	return nil
}

// Product is a catalog entry.
type Product struct {
	ID           int64
	Name         string
	PricePerUnit decimal.Decimal
}

// Order is the terminal's view of the ledger order it is working on.
type Order struct {
	ID           int64
	CreditAmount decimal.Decimal
	Status       OrderStatus
}

// Exists reports whether the order has been committed to the ledger.
func (o Order) Exists() bool {
	return o.ID > 0
}

// Credit returns the credit held on the order; zero if it does not exist.
func (o Order) Credit() decimal.Decimal {
	if !o.Exists() {
		return decimal.Zero
	}
	return o.CreditAmount
}

// Phase maps the order onto the session state machine's phases.
func (o Order) Phase() string {
	switch {
	case !o.Exists():
		return fsm.SessionPhaseIdle
	case o.Credit().IsPositive():
		return fsm.SessionPhaseFunded
	default:
		return fsm.SessionPhaseOpen
	}
}

// AddProductResult is the ledger's answer to adding a product to an order.
// Order is nil when the ledger returned no order payload.
type AddProductResult struct {
	Order               *Order
	MissingCreditAmount decimal.NullDecimal
}
