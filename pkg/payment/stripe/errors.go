package stripe

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the API key is invalid
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrIntentNotFound is returned when the payment intent does not exist
	ErrIntentNotFound = errors.New("payment intent not found")

	// ErrCardDeclined is returned when the card is declined by the issuer
	ErrCardDeclined = errors.New("card declined")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrPaymentFailed is returned for any other gateway failure
	ErrPaymentFailed = errors.New("payment failed")
)
