package machine

import (
	"context"
	"fmt"
	"strings"

	"github.com/buildtall-systems/sodamachine/internal/fsm"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const msgRetry = "Something went wrong, please retry."

// Controller runs the single order session of one terminal.
// It is not safe for concurrent use; commands must be issued sequentially.
type Controller struct {
	svc      OrderService
	sm       *fsm.SessionStateMachine
	products []Product
	order    Order
}

// New loads the product catalog and returns a controller with an empty session.
func New(ctx context.Context, svc OrderService) (*Controller, error) {
	products, err := svc.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	return &Controller{
		svc:      svc,
		sm:       fsm.NewSessionStateMachine(),
		products: products,
	}, nil
}

// Products returns the catalog in ledger order.
func (c *Controller) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Order returns a copy of the current session order.
func (c *Controller) Order() Order {
	return c.order
}

// Insert adds cash credit to the session, opening an order if none exists.
func (c *Controller) Insert(ctx context.Context, amount decimal.Decimal) Result {
	var res Result

	if !amount.IsPositive() {
		res.say("usage: insert <amount>")
		res.Err = ErrInvalidAmount
		return res
	}

	if !c.sm.CanTransition(c.order.Phase(), fsm.SessionEventInsert) {
		res.say(msgRetry)
		res.Err = fmt.Errorf("insert not allowed in phase %s", c.order.Phase())
		return res
	}

	if c.order.Exists() {
		updated, err := c.svc.AddCredit(ctx, c.order.ID, amount, PaymentCash)
		if err == nil && updated == nil {
			err = ErrEmptyResponse
		}
		if err != nil {
			res.say(msgRetry)
			res.Err = fmt.Errorf("adding credit to order %d: %w", c.order.ID, err)
			return res
		}
		// Only the credit is taken from this response; the id stays ours.
		c.order.CreditAmount = updated.CreditAmount
	} else {
		created, err := c.svc.CreateOrder(ctx, PaymentCash, amount)
		if err == nil && created == nil {
			err = ErrEmptyResponse
		}
		if err != nil {
			res.say(msgRetry)
			res.Err = fmt.Errorf("creating cash order: %w", err)
			return res
		}
		c.order = *created
	}

	log.WithFields(log.Fields{"order": c.order.ID, "credit": c.order.Credit()}).Debug("credit updated")

	res.say("Adding %s to credit, total credit %s", FormatAmount(amount), FormatAmount(c.order.Credit()))
	res.record(Event{Kind: EventCredited, OrderID: c.order.ID, Amount: amount, PaymentType: PaymentCash})
	return res
}

// SelectProduct orders a product by name. viaSMS marks a remotely paid order.
func (c *Controller) SelectProduct(ctx context.Context, name string, viaSMS bool) Result {
	var res Result

	product, ok := c.lookup(name)
	if !ok {
		res.say("No such %s soda", strings.TrimSpace(name))
		res.Err = fmt.Errorf("%w: %q", ErrUnknownProduct, name)
		return res
	}
	display := strings.ToLower(product.Name)

	payment := PaymentCash
	if viaSMS {
		payment = PaymentSMS
		if !c.sm.CanTransition(c.order.Phase(), fsm.SessionEventSMS) {
			res.say("SMS order cannot be processed. Previous order with credit amount %s is not completed.", FormatAmount(c.order.Credit()))
			res.record(Event{Kind: EventRejected, OrderID: c.order.ID, Product: display, Amount: c.order.Credit(), PaymentType: PaymentSMS})
			res.Err = ErrPreviousOrderPending
			return res
		}

		created, err := c.svc.CreateOrder(ctx, PaymentSMS, product.PricePerUnit)
		if err == nil && created == nil {
			err = ErrEmptyResponse
		}
		if err != nil {
			res.say(msgRetry)
			res.Err = fmt.Errorf("creating sms order: %w", err)
			return res
		}
		c.order = *created
	} else if !c.sm.CanTransition(c.order.Phase(), fsm.SessionEventSelect) {
		res.say("Need %s more", FormatAmount(product.PricePerUnit))
		res.record(Event{Kind: EventNeedMore, Product: display, Amount: product.PricePerUnit, PaymentType: PaymentCash})
		res.Err = ErrOrderRequired
		return res
	}

	resp, err := c.svc.AddProduct(ctx, c.order.ID, product.ID)
	if err == nil && (resp == nil || resp.Order == nil) {
		err = ErrEmptyResponse
	}
	if err != nil {
		res.say(msgRetry)
		res.Err = fmt.Errorf("adding product %d to order %d: %w", product.ID, c.order.ID, err)
		return res
	}

	c.order = *resp.Order

	switch c.order.Status {
	case OrderStatusProductShipped:
		res.say("Giving %s out", display)
		res.record(Event{Kind: EventDispensed, OrderID: c.order.ID, Product: display, Amount: product.PricePerUnit, PaymentType: payment})
		c.recall(ctx, c.order, &res)

	case OrderStatusInsufficientCreditAmount:
		if !resp.MissingCreditAmount.Valid {
			res.say(msgRetry)
			res.Err = ErrMissingCreditAmount
			return res
		}
		missing := resp.MissingCreditAmount.Decimal
		res.say("Need %s more", FormatAmount(missing))
		res.record(Event{Kind: EventNeedMore, OrderID: c.order.ID, Product: display, Amount: missing, PaymentType: payment})

	case OrderStatusProductOutOfStock:
		res.say("No %s left", display)
		res.record(Event{Kind: EventOutOfStock, OrderID: c.order.ID, Product: display, PaymentType: payment})
		if viaSMS {
			// Remote customers cannot pick something else; refund right away.
			c.recall(ctx, c.order, &res)
		}

	default:
		log.WithFields(log.Fields{"order": c.order.ID, "status": c.order.Status}).Debug("ignoring order status")
	}

	return res
}

// Recall returns any held credit and clears the session.
func (c *Controller) Recall(ctx context.Context) Result {
	var res Result
	c.recall(ctx, c.order, &res)
	return res
}

func (c *Controller) recall(ctx context.Context, order Order, res *Result) {
	if credit := order.Credit(); credit.IsPositive() {
		res.say("Returning %s to customer", FormatAmount(credit))
		if err := c.svc.RecallOrder(ctx, order.ID); err != nil {
			res.Err = fmt.Errorf("recalling order %d: %w", order.ID, err)
			res.record(Event{Kind: EventRefundFailed, OrderID: order.ID, Amount: credit})
		} else {
			res.record(Event{Kind: EventRefunded, OrderID: order.ID, Amount: credit})
		}
	}

	c.order = Order{}
}

func (c *Controller) lookup(name string) (Product, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, p := range c.products {
		if strings.ToLower(strings.TrimSpace(p.Name)) == want {
			return p, true
		}
	}
	return Product{}, false
}
