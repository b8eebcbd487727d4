package surface

// Navigation describes a navigation request raised inside a surface.
type Navigation struct {
	URL string

	// TopLevel is true when the request targets a new top-level context
	// (privacy policy links, invoices) rather than an in-page transition of
	// the checkout flow itself.
	TopLevel bool
}

// ExternalOpener hands a URL to the platform's default external-link
// handler.
type ExternalOpener interface {
	OpenExternal(url string) error
}

// OpenerFunc adapts a function to ExternalOpener.
type OpenerFunc func(url string) error

func (f OpenerFunc) OpenExternal(url string) error {
	return f(url)
}
