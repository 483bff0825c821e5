package orderapi

import (
	"encoding/json"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/shopspring/decimal"
)

// productDTO is a catalog entry as served by GET /api/products.
type productDTO struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

type orderDTO struct {
	ID           int64               `json:"id"`
	CreditAmount decimal.Decimal     `json:"creditAmount"`
	OrderStatus  machine.OrderStatus `json:"orderStatus"`
}

// Request amounts are sent as bare JSON numbers; decimal.Decimal would quote them.
type addOrderRequest struct {
	PaymentType  machine.PaymentType `json:"paymentType"`
	CreditAmount json.Number         `json:"creditAmount"`
}

type addCreditRequest struct {
	OrderID      int64               `json:"orderId"`
	CreditAmount json.Number         `json:"creditAmount"`
	PaymentType  machine.PaymentType `json:"paymentType"`
}

type addProductResponse struct {
	Order               *orderDTO           `json:"order"`
	MissingCreditAmount decimal.NullDecimal `json:"missingCreditAmount"`
}

func (p productDTO) toProduct() machine.Product {
	return machine.Product{ID: p.ID, Name: p.Name, PricePerUnit: p.PricePerUnit}
}

func (o *orderDTO) toOrder() *machine.Order {
	if o == nil {
		return nil
	}
	return &machine.Order{ID: o.ID, CreditAmount: o.CreditAmount, Status: o.OrderStatus}
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
