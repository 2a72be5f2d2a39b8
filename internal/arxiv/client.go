package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/csheth/paperdistill/internal/config"
)

const defaultSiteBase = "https://arxiv.org"

// ErrNotFound is returned when a lookup matches no paper.
var ErrNotFound = errors.New("paper not found")

// Options carries optional collaborators.
type Options struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	// SiteBase overrides https://arxiv.org for PDF and HTML downloads.
	SiteBase string
}

// Client queries the arXiv export API. Requests are paced by a shared limiter.
type Client struct {
	endpoint   string
	siteBase   string
	maxResults int
	userAgent  string
	http       *http.Client
	limiter    *rate.Limiter
	pdfs       *pdfCache
	logger     *zap.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ArxivConfig, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	siteBase := strings.TrimRight(opts.SiteBase, "/")
	if siteBase == "" {
		siteBase = defaultSiteBase
	}
	pdfs, err := newPDFCache(cfg.CacheDir, cfg.CacheTTL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare pdf cache: %w", err)
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		siteBase:   siteBase,
		maxResults: cfg.MaxResults,
		userAgent:  cfg.UserAgent,
		http:       httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		pdfs:       pdfs,
		logger:     logger,
	}, nil
}

// BuildQuery combines free text with OR-ed category predicates:
// "query AND (cat:a OR cat:b)", or just the categories when query is empty.
func BuildQuery(query string, categories []string) (string, error) {
	query = strings.TrimSpace(query)
	preds := make([]string, 0, len(categories))
	for _, cat := range categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			preds = append(preds, "cat:"+cat)
		}
	}
	catQuery := strings.Join(preds, " OR ")
	switch {
	case query == "" && catQuery == "":
		return "", errors.New("enter keywords or pick at least one category")
	case catQuery == "":
		return query, nil
	case query == "":
		return catQuery, nil
	default:
		return fmt.Sprintf("%s AND (%s)", query, catQuery), nil
	}
}

// Search returns the newest papers matching query within categories.
// maxResults <= 0 uses the configured default.
func (c *Client) Search(ctx context.Context, query string, categories []string, maxResults int) ([]Document, error) {
	q, err := BuildQuery(query, categories)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	params := url.Values{}
	params.Set("search_query", q)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	docs, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	c.logger.Info("arxiv search completed",
		zap.String("query", q),
		zap.Int("results", len(docs)))
	return docs, nil
}

// Lookup fetches a single paper by URL or identifier.
func (c *Client) Lookup(ctx context.Context, input string) (Document, error) {
	id := ExtractIdentifier(input)
	if id == "" {
		return Document{}, fmt.Errorf("unable to extract arXiv identifier from %q", input)
	}
	params := url.Values{}
	params.Set("id_list", id)
	docs, err := c.query(ctx, params)
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrNotFound
	}
	return docs[0], nil
}

func (c *Client) query(ctx context.Context, params url.Values) ([]Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv API error: %s (%s)", resp.Status, string(body))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode arxiv response: %w", err)
	}
	return c.decodeFeed(feed)
}

func (c *Client) decodeFeed(feed *gofeed.Feed) ([]Document, error) {
	docs := make([]Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if strings.Contains(item.GUID, "/api/errors") {
			return nil, fmt.Errorf("arxiv rejected the query: %s", normalizeWhitespace(item.Description))
		}
		id := ExtractIdentifier(item.GUID)
		if id == "" {
			id = ExtractIdentifier(item.Link)
		}
		if id == "" {
			c.logger.Debug("skipping entry without identifier", zap.String("guid", item.GUID))
			continue
		}

		doc := Document{
			ID:         id,
			Title:      normalizeWhitespace(item.Title),
			Abstract:   normalizeWhitespace(item.Description),
			Categories: append([]string(nil), item.Categories...),
			AbsURL:     fmt.Sprintf("%s/abs/%s", c.siteBase, id),
			PDFURL:     fmt.Sprintf("%s/pdf/%s", c.siteBase, id),
		}
		for _, author := range item.Authors {
			if author != nil && strings.TrimSpace(author.Name) != "" {
				doc.Authors = append(doc.Authors, strings.TrimSpace(author.Name))
			}
		}
		if item.PublishedParsed != nil {
			doc.Published = item.PublishedParsed.UTC()
		}
		if item.UpdatedParsed != nil {
			doc.Updated = item.UpdatedParsed.UTC()
		}
		if exts, ok := item.Extensions["arxiv"]["primary_category"]; ok && len(exts) > 0 {
			doc.PrimaryCategory = exts[0].Attrs["term"]
		}
		if doc.PrimaryCategory == "" && len(doc.Categories) > 0 {
			doc.PrimaryCategory = doc.Categories[0]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
