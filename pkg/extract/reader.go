package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrContainerMissing is returned when the payload container is not present
// in the document.
var ErrContainerMissing = errors.New("payload container not found")

// ReadContainer extracts the payload container's text from a rendered
// document, mirroring what the injected script does inside a live surface.
// An empty selector selects the default container.
func ReadContainer(html, selector string) (string, error) {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultContainerSelector
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", ErrContainerMissing
	}
	return strings.TrimSpace(sel.First().Text()), nil
}
