package machine

import "errors"

// ErrCatalogUnavailable indicates the product catalog could not be loaded at startup.
var ErrCatalogUnavailable = errors.New("product catalog unavailable")

// ErrInvalidAmount indicates an inserted amount that is not a positive decimal.
var ErrInvalidAmount = errors.New("amount must be a positive decimal")

// ErrUnknownProduct indicates a selection that matches no catalog entry.
var ErrUnknownProduct = errors.New("no such product")

// ErrOrderRequired indicates a walk-up selection without any credit inserted.
var ErrOrderRequired = errors.New("no order with credit exists")

// ErrPreviousOrderPending indicates an SMS order attempted over an unresolved paid order.
var ErrPreviousOrderPending = errors.New("previous order not completed")

// ErrEmptyResponse indicates the ledger answered without the order payload.
var ErrEmptyResponse = errors.New("order service returned no order")

// ErrMissingCreditAmount indicates an insufficient-credit answer without the missing amount.
var ErrMissingCreditAmount = errors.New("order service omitted missing credit amount")
