package e2etest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseFragment parses an HTML fragment returned inside a JSON response, such as rendered program notes.
func ParseFragment(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	return doc, nil
}
