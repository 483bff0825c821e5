package orderapi

import "errors"

// ErrInvalidBaseURL indicates the configured Order Service address cannot be used.
var ErrInvalidBaseURL = errors.New("invalid order service base URL")

// ErrRequestFailed indicates the request never produced an HTTP response.
var ErrRequestFailed = errors.New("order service request failed")

// ErrUnexpectedStatus indicates a non-2xx answer from the Order Service.
var ErrUnexpectedStatus = errors.New("unexpected order service status")

// ErrInvalidResponse indicates a response body that could not be decoded.
var ErrInvalidResponse = errors.New("invalid order service response")
