package cart

import (
	"errors"

	"solecart/pkg/cartclient"
)

var (
	// ErrMissingProductID indicates a product without productId, _id or id.
	ErrMissingProductID = errors.New("cart: missing product id")
	// ErrSizeRequired indicates an add without a size.
	ErrSizeRequired = errors.New("cart: size is required")
	// ErrNotConfigured indicates a Service built without a store or remote.
	ErrNotConfigured = errors.New("cart: service not configured")
)

// IsUnauthorized reports whether err is the backend rejecting the session
// token (401/403). AddToCart returns such errors so the caller can prompt
// for a new login.
func IsUnauthorized(err error) bool {
	return cartclient.IsAuthError(err)
}

type failureKind int

const (
	failureRemote failureKind = iota
	failureAuth
)

func (k failureKind) String() string {
	if k == failureAuth {
		return "auth"
	}
	return "remote"
}

func classify(err error) failureKind {
	if cartclient.IsAuthError(err) {
		return failureAuth
	}
	return failureRemote
}
