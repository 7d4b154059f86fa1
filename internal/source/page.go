package source

import (
	"bytes"
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// pageDateLayout is the MM/DD/YY form of the .mobile-date element.
const pageDateLayout = "01/02/06"

const (
	unknownTeam   = "Unknown Team"
	unknownPlayer = "Unknown Player"
)

// PageClient scrapes the public transactions HTML page.
type PageClient struct {
	url    string
	getter *httpGetter
}

func NewPageClient(url string, opts Options) *PageClient {
	return &PageClient{url: url, getter: newHTTPGetter(opts)}
}

func (c *PageClient) Fetch(ctx context.Context, since models.Date) ([]models.TransactionRecord, error) {
	logger.Info("Getting transactions since %s", since)
	body, err := c.getter.get(ctx, c.url, "text/html")
	if err != nil {
		return nil, crerr.Wrap(err, "fetching transactions page")
	}
	records, err := parsePage(body, since)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d transactions since %s", len(records), since)
	return records, nil
}

// parsePage turns every td.description cell into a record. Cells without a readable date are skipped.
func parsePage(body []byte, since models.Date) ([]models.TransactionRecord, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "parsing transactions page"), ErrFetch)
	}

	records := make([]models.TransactionRecord, 0)
	for _, cell := range findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Td && hasClass(n, "description")
	}) {
		dateElem := findFirstByClass(cell, "mobile-date")
		if dateElem == nil {
			continue
		}
		dateText := strippedText(dateElem)
		t, err := time.Parse(pageDateLayout, dateText)
		if err != nil {
			logger.Error("Error processing transaction item: bad date %q", dateText)
			continue
		}
		date := models.DateOf(t)
		if date.Before(since) {
			continue
		}

		team := unknownTeam
		if el := findFirstByClass(cell, "club-link"); el != nil {
			team = normalizeTeam(strippedText(el))
		}
		player := unknownPlayer
		if el := findFirstByClass(cell, "player-link"); el != nil {
			player = strippedText(el)
		}
		details := strings.TrimSpace(strings.ReplaceAll(strippedText(cell), dateText, ""))

		logger.Debug("Processed transaction: %s - %s - %s", date, team, details)
		records = append(records, models.TransactionRecord{Date: date, Team: team, Details: details, Player: player})
	}
	return records, nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// findAll returns the matching descendants of root in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirstByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if hasClass(c, class) {
				found = c
				return true
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// strippedText joins the trimmed text nodes under n with no separator, which is how the page's
// markup boundaries end up gluing words together.
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
