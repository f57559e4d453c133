package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"listinglab/internal/models"
	"listinglab/utils"
)

// Placeholders substituted when a page section is missing from the markup.
// A page with missing sections is still a successful extraction.
const (
	TitleFallback       = "Title not found"
	BulletsFallback     = "Bullets not found"
	DescriptionFallback = "Description not found"
)

// Error reports HTML that could not be parsed at all.
type Error struct {
	ASIN string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract listing %s: %v", e.ASIN, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extract parses the raw HTML of a product page and returns the normalized
// listing for asin. Missing fields get placeholder values; it only fails when
// the document itself is unparseable.
func Extract(html, asin string) (models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.RawListing{}, &Error{ASIN: asin, Err: err}
	}

	title := utils.CleanText(doc.Find("#productTitle").First().Text())

	var bullets []string
	doc.Find("#feature-bullets .a-list-item").Each(func(_ int, s *goquery.Selection) {
		if text := utils.CleanText(s.Text()); text != "" {
			bullets = append(bullets, text)
		}
	})

	description := utils.CleanText(doc.Find("#productDescription p").Text())

	if title == "" {
		title = TitleFallback
	}
	if len(bullets) == 0 {
		bullets = []string{BulletsFallback}
	}
	if description == "" {
		description = DescriptionFallback
	}

	return models.RawListing{
		ASIN:         asin,
		Title:        title,
		BulletPoints: bullets,
		Description:  description,
	}, nil
}
