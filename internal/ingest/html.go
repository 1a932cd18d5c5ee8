package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const fetchTimeout = 20 * time.Second

var contentSelectors = []string{
	"main",
	"article",
	"[role='main']",
	".main-content",
	".content",
	"#content",
	"body",
}

// FetchPageText downloads a web page and extracts its readable text.
// Navigation chrome, scripts and styles are stripped before extraction.
func FetchPageText(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "chatbot-retrieval-core/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching page", resp.StatusCode)
	}

	// Decode whatever charset the server sent into UTF-8 before parsing.
	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode page charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := extractMainContent(doc)
	if len(text) == 0 {
		return "", fmt.Errorf("no text content found on page")
	}

	return text, nil
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside, noscript").Remove()

	var content strings.Builder
	found := false

	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
				found = true
			}
		})
		if found {
			break
		}
	}

	if !found {
		content.WriteString(doc.Find("body").Text())
	}

	lines := strings.Split(content.String(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
