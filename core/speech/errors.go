package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks failures to reach the vendor at all.
	ErrNetwork = errors.New("speech: network error")
	// ErrEmptyResult is returned when the vendor answered but produced no
	// text or audio.
	ErrEmptyResult = errors.New("speech: empty result")
)

// VendorError is a non-success answer from a speech vendor.
type VendorError struct {
	Vendor string
	Code   int
	Body   string
}

func (e *VendorError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: vendor returned status %d", e.Vendor, e.Code)
	}
	return fmt.Sprintf("%s: vendor returned status %d: %s", e.Vendor, e.Code, e.Body)
}

// NetworkError wraps err so that it matches ErrNetwork while keeping the
// underlying cause reachable through errors.Unwrap.
func NetworkError(vendor string, err error) error {
	return fmt.Errorf("%s: %w: %w", vendor, ErrNetwork, err)
}

// IsVendorError reports whether err carries a VendorError and returns it.
func IsVendorError(err error) (*VendorError, bool) {
	var vendorErr *VendorError
	if errors.As(err, &vendorErr) {
		return vendorErr, true
	}
	return nil, false
}
