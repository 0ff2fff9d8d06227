package interfaces

import "context"

// LicenseValidator gates job creation when licensing is configured.
// The core treats it as an opaque boolean check consulted once at start.
type LicenseValidator interface {
	// Enabled reports whether license enforcement is configured
	Enabled() bool

	// Validate checks a license key. The reason is human-readable and
	// only meaningful when valid is false.
	Validate(ctx context.Context, licenseKey string) (valid bool, reason string)

	// CheckoutURL returns the purchase URL surfaced to unlicensed users
	CheckoutURL() string
}
