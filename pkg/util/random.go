package util

import (
	"fmt"

	"github.com/google/uuid"
)

// NewCartSessionToken generates an opaque session token identifying a guest
// cart. The prefix keeps tokens recognizable in logs and Redis keys.
func NewCartSessionToken() string {
	return fmt.Sprintf("cart_%s", uuid.NewString())
}

// NewRequestID generates a unique identifier attached to each HTTP request.
func NewRequestID() string {
	return uuid.NewString()
}
