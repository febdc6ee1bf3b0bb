package shoplist

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML extracts the item lines of an HTML shopping list: list items when there are
// any, otherwise table rows (cells joined by a space), otherwise non-empty text lines.
func ParseHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		if t := clean(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	if len(out) > 0 {
		return out, nil
	}

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			if t := clean(td.Text()); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			out = append(out, strings.Join(cells, " "))
		}
	})
	if len(out) > 0 {
		return out, nil
	}

	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if t := clean(line); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func clean(s string) string { return strings.Join(strings.Fields(s), " ") }
