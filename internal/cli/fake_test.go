package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/shopspring/decimal"
)

// fakeLedger is an in-memory Order Service with Cola (1.50) and Fanta (1.20, sold out).
type fakeLedger struct {
	nextID   int64
	credit   map[int64]decimal.Decimal
	stock    map[int64]int
	recalled []int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		nextID: 10,
		credit: make(map[int64]decimal.Decimal),
		stock:  map[int64]int{1: 5, 2: 0},
	}
}

var ledgerProducts = []machine.Product{
	{ID: 1, Name: "Cola", PricePerUnit: decimal.RequireFromString("1.50")},
	{ID: 2, Name: "Fanta", PricePerUnit: decimal.RequireFromString("1.20")},
}

func (l *fakeLedger) ListProducts(ctx context.Context) ([]machine.Product, error) {
	return ledgerProducts, nil
}

func (l *fakeLedger) CreateOrder(ctx context.Context, paymentType machine.PaymentType, creditAmount decimal.Decimal) (*machine.Order, error) {
	id := l.nextID
	l.nextID += 10
	l.credit[id] = creditAmount
	return &machine.Order{ID: id, CreditAmount: creditAmount}, nil
}

func (l *fakeLedger) AddCredit(ctx context.Context, orderID int64, creditAmount decimal.Decimal, paymentType machine.PaymentType) (*machine.Order, error) {
	l.credit[orderID] = l.credit[orderID].Add(creditAmount)
	return &machine.Order{ID: orderID, CreditAmount: l.credit[orderID]}, nil
}

func (l *fakeLedger) AddProduct(ctx context.Context, orderID, productID int64) (*machine.AddProductResult, error) {
	var price decimal.Decimal
	for _, p := range ledgerProducts {
		if p.ID == productID {
			price = p.PricePerUnit
		}
	}
	credit := l.credit[orderID]

	switch {
	case l.stock[productID] == 0:
		return &machine.AddProductResult{Order: &machine.Order{ID: orderID, CreditAmount: credit, Status: machine.OrderStatusProductOutOfStock}}, nil
	case credit.LessThan(price):
		return &machine.AddProductResult{
			Order:               &machine.Order{ID: orderID, CreditAmount: credit, Status: machine.OrderStatusInsufficientCreditAmount},
			MissingCreditAmount: decimal.NewNullDecimal(price.Sub(credit)),
		}, nil
	default:
		l.stock[productID]--
		l.credit[orderID] = credit.Sub(price)
		return &machine.AddProductResult{Order: &machine.Order{ID: orderID, CreditAmount: l.credit[orderID], Status: machine.OrderStatusProductShipped}}, nil
	}
}

func (l *fakeLedger) RecallOrder(ctx context.Context, orderID int64) error {
	l.recalled = append(l.recalled, orderID)
	l.credit[orderID] = decimal.Zero
	return nil
}

// fakeJournal collects journaled events.
type fakeJournal struct {
	sources []string
	events  []machine.Event
	err     error
}

func (j *fakeJournal) RecordAll(ctx context.Context, source string, events []machine.Event) error {
	if j.err != nil {
		return j.err
	}
	for _, ev := range events {
		j.sources = append(j.sources, source)
		j.events = append(j.events, ev)
	}
	return nil
}

func (j *fakeJournal) kinds() []machine.EventKind {
	out := make([]machine.EventKind, 0, len(j.events))
	for _, ev := range j.events {
		out = append(out, ev.Kind)
	}
	return out
}

// fakePublisher captures published replies.
type fakePublisher struct {
	mu     sync.Mutex
	events []*gonostr.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event *gonostr.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

var errPublish = errors.New("relays unreachable")
