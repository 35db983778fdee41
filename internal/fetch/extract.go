package fetch

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ExtractListingURLs parses the listing page HTML and returns the first
// anchor href inside every card container, in document order. Containers
// without an anchor (or with an anchor lacking href) are skipped.
func ExtractListingURLs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find(listingSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if ok && href != "" {
			links = append(links, href)
		}
	})

	return links, nil
}
