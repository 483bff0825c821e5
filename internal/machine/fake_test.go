package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type call struct {
	Op          string
	OrderID     int64
	ProductID   int64
	Amount      string
	PaymentType PaymentType
}

// fakeService answers from canned responses and records every call.
type fakeService struct {
	products    []Product
	productsErr error

	created   []*Order
	createErr error

	credited  *Order
	creditErr error

	added  []*AddProductResult
	addErr error

	recallErr error

	calls []call
}

func (f *fakeService) ListProducts(ctx context.Context) ([]Product, error) {
	f.calls = append(f.calls, call{Op: "list"})
	return f.products, f.productsErr
}

func (f *fakeService) CreateOrder(ctx context.Context, paymentType PaymentType, creditAmount decimal.Decimal) (*Order, error) {
	f.calls = append(f.calls, call{Op: "create", Amount: creditAmount.StringFixed(2), PaymentType: paymentType})
	if f.createErr != nil {
		return nil, f.createErr
	}
	if len(f.created) == 0 {
		return nil, errors.New("fake: no order queued")
	}
	o := f.created[0]
	f.created = f.created[1:]
	return o, nil
}

func (f *fakeService) AddCredit(ctx context.Context, orderID int64, creditAmount decimal.Decimal, paymentType PaymentType) (*Order, error) {
	f.calls = append(f.calls, call{Op: "credit", OrderID: orderID, Amount: creditAmount.StringFixed(2), PaymentType: paymentType})
	return f.credited, f.creditErr
}

func (f *fakeService) AddProduct(ctx context.Context, orderID, productID int64) (*AddProductResult, error) {
	f.calls = append(f.calls, call{Op: "add", OrderID: orderID, ProductID: productID})
	if f.addErr != nil {
		return nil, f.addErr
	}
	if len(f.added) == 0 {
		return nil, fmt.Errorf("fake: no add-product response queued")
	}
	r := f.added[0]
	f.added = f.added[1:]
	return r, nil
}

func (f *fakeService) RecallOrder(ctx context.Context, orderID int64) error {
	f.calls = append(f.calls, call{Op: "recall", OrderID: orderID})
	return f.recallErr
}

func (f *fakeService) ops() []string {
	var ops []string
	for _, c := range f.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

func (f *fakeService) resetCalls() {
	f.calls = nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func colaCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Cola", PricePerUnit: dec("1.50")},
		{ID: 2, Name: "Fanta", PricePerUnit: dec("1.20")},
	}
}
