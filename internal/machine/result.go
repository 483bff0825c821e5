package machine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventKind classifies what a command did to the session.
type EventKind string

const (
	EventCredited     EventKind = "credited"
	EventDispensed    EventKind = "dispensed"
	EventRefunded     EventKind = "refunded"
	EventRefundFailed EventKind = "refund_failed"
	EventOutOfStock   EventKind = "out_of_stock"
	EventNeedMore     EventKind = "need_more"
	EventRejected     EventKind = "rejected"
)

// Event is a session outcome worth journaling.
type Event struct {
	Kind        EventKind
	OrderID     int64
	Product     string
	Amount      decimal.Decimal
	PaymentType PaymentType
}

// Result holds the response from a controller command.
type Result struct {
	Messages []string // operator-facing lines, in order
	Events   []Event
	Err      error // why the command was refused or failed, nil for normal outcomes
}

func (r *Result) say(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) record(ev Event) {
	r.Events = append(r.Events, ev)
}

// FormatAmount renders money the way the terminal displays it.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
