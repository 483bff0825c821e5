package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Operation names reported to the Observer.
const (
	OpListProducts = "list_products"
	OpCreateOrder  = "create_order"
	OpAddCredit    = "add_credit"
	OpAddProduct   = "add_product"
	OpRecallOrder  = "recall_order"
)

// RequestIDHeader carries a fresh id on every request for ledger-side tracing.
const RequestIDHeader = "X-Request-ID"

// Observer is told about every finished request.
type Observer interface {
	ObserveRequest(operation string, duration time.Duration, err error)
}

// Client talks to the Order Service over HTTP/JSON.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	observer   Observer
}

var _ machine.OrderService = (*Client)(nil)

// NewClient creates a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client with a custom http.Client (for testing).
func NewClientWithHTTP(baseURL string, c *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return &Client{baseURL: u, httpClient: c}, nil
}

// SetObserver installs o to receive request timings. Nil disables reporting.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]machine.Product, error) {
	var dtos []productDTO
	if _, err := c.do(ctx, OpListProducts, http.MethodGet, "/api/products", nil, &dtos); err != nil {
		return nil, err
	}

	products := make([]machine.Product, 0, len(dtos))
	for _, p := range dtos {
		products = append(products, p.toProduct())
	}
	return products, nil
}

// CreateOrder opens a new ledger order funded with creditAmount.
// An empty body yields a nil order.
func (c *Client) CreateOrder(ctx context.Context, paymentType machine.PaymentType, creditAmount decimal.Decimal) (*machine.Order, error) {
	req := addOrderRequest{PaymentType: paymentType, CreditAmount: amount(creditAmount)}

	var dto orderDTO
	decoded, err := c.do(ctx, OpCreateOrder, http.MethodPost, "/api/orders", req, &dto)
	if err != nil || !decoded {
		return nil, err
	}
	return dto.toOrder(), nil
}

// AddCredit adds creditAmount to an existing order.
func (c *Client) AddCredit(ctx context.Context, orderID int64, creditAmount decimal.Decimal, paymentType machine.PaymentType) (*machine.Order, error) {
	req := addCreditRequest{OrderID: orderID, CreditAmount: amount(creditAmount), PaymentType: paymentType}

	var dto orderDTO
	path := fmt.Sprintf("/api/orders/%d/credit", orderID)
	decoded, err := c.do(ctx, OpAddCredit, http.MethodPost, path, req, &dto)
	if err != nil || !decoded {
		return nil, err
	}
	return dto.toOrder(), nil
}

// AddProduct asks the ledger to put a product on the order.
// An empty body yields a nil result.
func (c *Client) AddProduct(ctx context.Context, orderID, productID int64) (*machine.AddProductResult, error) {
	var resp addProductResponse
	path := fmt.Sprintf("/api/orders/%d/products/%d", orderID, productID)
	decoded, err := c.do(ctx, OpAddProduct, http.MethodPost, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !decoded {
		return nil, nil
	}

	return &machine.AddProductResult{
		Order:               resp.Order.toOrder(),
		MissingCreditAmount: resp.MissingCreditAmount,
	}, nil
}

// RecallOrder instructs the ledger to return the order's credit.
func (c *Client) RecallOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/api/orders/%d/recall", orderID)
	_, err := c.do(ctx, OpRecallOrder, http.MethodPost, path, nil, nil)
	return err
}

// do performs one request. It reports whether a non-empty body was decoded into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (decoded bool, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(op, time.Since(start), err)
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("%w: encoding request: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return false, fmt.Errorf("%w: creating request: %v", ErrRequestFailed, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.WithFields(log.Fields{"op": op, "url": endpoint.String(), "request_id": requestID}).Debug("order service request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: %s %s: HTTP %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if out == nil {
		return false, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidResponse, err)
	}
	return true, nil
}
