package arxiv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// FullText returns the paper body. The PDF is tried first; when it cannot be
// downloaded or parsed the arXiv HTML rendering is used instead.
func (c *Client) FullText(ctx context.Context, doc Document) (string, error) {
	pdfURL := doc.PDFURL
	if pdfURL == "" {
		pdfURL = fmt.Sprintf("%s/pdf/%s", c.siteBase, doc.ID)
	}
	text, pdfErr := c.pdfText(ctx, pdfURL)
	if pdfErr == nil && text != "" {
		return text, nil
	}
	if pdfErr == nil {
		pdfErr = errors.New("pdf contained no extractable text")
	}
	c.logger.Info("pdf extraction failed, trying html rendering",
		zap.String("document_id", doc.ID),
		zap.Error(pdfErr))

	text, htmlErr := c.htmlText(ctx, fmt.Sprintf("%s/html/%s", c.siteBase, doc.ID))
	if htmlErr != nil {
		return "", fmt.Errorf("failed to acquire paper text: pdf: %v; html: %w", pdfErr, htmlErr)
	}
	return text, nil
}

func (c *Client) pdfText(ctx context.Context, pdfURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	path, err := c.pdfs.Fetch(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	return extractPDFText(path)
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return normalizeWhitespace(builder.String()), nil
}

func (c *Client) htmlText(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("html rendering unavailable: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	if resp.Request != nil && resp.Request.URL != nil {
		parsed = resp.Request.URL
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to extract html text: %w", err)
	}
	text := normalizeWhitespace(article.TextContent)
	if text == "" {
		return "", errors.New("html rendering contained no readable text")
	}
	return text, nil
}
