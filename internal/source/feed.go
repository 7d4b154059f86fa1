package source

import (
	"context"
	"os"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// feedDocument is the JSON written by the transactions scraper.
type feedDocument struct {
	LastUpdated  string    `json:"last_updated"`
	Transactions []feedRow `json:"transactions"`
}

// feedRow keeps the date as text so one bad row does not sink the whole document.
type feedRow struct {
	Date    string `json:"date"`
	Team    string `json:"team"`
	Details string `json:"details"`
	Player  string `json:"player"`
}

// FeedClient reads the pre-scraped transactions document over HTTP.
type FeedClient struct {
	url    string
	getter *httpGetter
}

func NewFeedClient(url string, opts Options) *FeedClient {
	return &FeedClient{url: url, getter: newHTTPGetter(opts)}
}

func (c *FeedClient) Fetch(ctx context.Context, since models.Date) ([]models.TransactionRecord, error) {
	logger.Info("Getting transactions since %s", since)
	body, err := c.getter.get(ctx, c.url, "application/json")
	if err != nil {
		return nil, crerr.Wrap(err, "fetching transactions feed")
	}
	return decodeFeed(body, since)
}

// FileSource reads the same document from a local file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(_ context.Context, since models.Date) ([]models.TransactionRecord, error) {
	logger.Info("Reading transactions since %s from %s", since, s.path)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "reading %s", s.path), ErrFetch)
	}
	return decodeFeed(data, since)
}

// WriteFeed stores records at path as a feed document stamped with updated,
// replacing any previous file.
func WriteFeed(path string, records []models.TransactionRecord, updated time.Time) error {
	doc := feedDocument{
		LastUpdated:  updated.Format(time.RFC3339),
		Transactions: make([]feedRow, 0, len(records)),
	}
	for _, r := range records {
		doc.Transactions = append(doc.Transactions, feedRow{
			Date:    r.Date.String(),
			Team:    r.Team,
			Details: r.Details,
			Player:  r.Player,
		})
	}

	data, err := sonic.ConfigDefault.MarshalIndent(doc, "", "  ")
	if err != nil {
		return crerr.Wrap(err, "encoding transactions feed")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return crerr.Wrapf(err, "writing %s", path)
	}
	logger.Info("Saved %d transactions to %s", len(records), path)
	return nil
}

func decodeFeed(data []byte, since models.Date) ([]models.TransactionRecord, error) {
	var doc feedDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "decoding transactions feed"), ErrFetch)
	}
	logger.Info("Fetched %d transactions, last updated: %s", len(doc.Transactions), doc.LastUpdated)

	records := make([]models.TransactionRecord, 0, len(doc.Transactions))
	for _, row := range doc.Transactions {
		if row.Date == "" {
			continue
		}
		date, err := models.ParseDate(row.Date)
		if err != nil {
			logger.Warn("Skipping transaction with bad date: %v", err)
			continue
		}
		if date.Before(since) {
			continue
		}
		rec := models.TransactionRecord{Date: date, Team: normalizeTeam(row.Team), Details: row.Details, Player: row.Player}
		if err := rec.Validate(); err != nil {
			logger.Warn("Skipping transaction: %v", err)
			continue
		}
		records = append(records, rec)
	}

	logger.Info("Found %d transactions since %s", len(records), since)
	return records, nil
}
