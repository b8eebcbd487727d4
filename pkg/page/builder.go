// Package page builds the synthetic HTML document that hosts the third-party
// checkout widget inside an embedded surface.
package page

import (
	"fmt"
	"strings"
)

// BlankBaseURL is the address synthetic checkout documents are loaded under.
// Real navigations always carry an origin, so the host can use this sentinel
// to recognize that no external page has been loaded yet.
const BlankBaseURL = "about:blank"

// DefaultWidgetScriptURL is the checkout provider's storefront loader.
const DefaultWidgetScriptURL = "https://sbl.checkout-cdn.com/sbl/0.9.5/storefront-builder.min.js"

// Document is a complete HTML page ready to load into a surface.
type Document struct {
	HTML    string
	BaseURL string
}

// Builder produces checkout documents for one widget configuration.
type Builder struct {
	widgetScriptURL string
}

// NewBuilder creates a Builder. An empty widgetScriptURL selects the default
// provider loader.
func NewBuilder(widgetScriptURL string) *Builder {
	if strings.TrimSpace(widgetScriptURL) == "" {
		widgetScriptURL = DefaultWidgetScriptURL
	}
	return &Builder{widgetScriptURL: widgetScriptURL}
}

// Build produces the document that opens the checkout widget directly on the
// given product path and quantity for the given storefront.
//
// Inputs are substituted verbatim with no escaping; callers supply trusted,
// well-formed identifiers. This is a documented constraint of the generated
// document, not input validation left out by accident.
func (b *Builder) Build(storeFront, productPath string, quantity int) Document {
	if quantity < 1 {
		quantity = 1
	}
	return Document{
		HTML:    fmt.Sprintf(documentTemplate, b.widgetScriptURL, storeFront, productPath, quantity),
		BaseURL: BlankBaseURL,
	}
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script
    id="storefront-api"
    src="%s"
    type="text/javascript"
    data-storefront="%s"
    data-continuous="true">
</script>
</head>
<body>
<script type="text/javascript">
storefront.builder.push({
    products: [
        {
            path: "%s",
            quantity: %d
        }
    ],
    checkout: true
});
</script>
</body>
</html>
`
