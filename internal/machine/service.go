package machine

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderService is the remote order ledger the controller works against.
type OrderService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateOrder(ctx context.Context, paymentType PaymentType, creditAmount decimal.Decimal) (*Order, error)
	AddCredit(ctx context.Context, orderID int64, creditAmount decimal.Decimal, paymentType PaymentType) (*Order, error)
	AddProduct(ctx context.Context, orderID, productID int64) (*AddProductResult, error)
	RecallOrder(ctx context.Context, orderID int64) error
}
