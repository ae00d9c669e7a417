package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

const (
	// Default timeout for a single article fetch
	articleFetchTimeout = 20 * time.Second

	// Response bodies larger than this are cut off while reading
	maxFetchBodyBytes = 2 << 20

	// Image downloads larger than this are rejected outright
	maxImageFetchBytes = 5 << 20

	// Image URLs collected per article for the vision pipeline
	maxArticleImages = 8

	defaultFetchRPS        = 1.0
	defaultFetchDailyLimit = 500
)

// ArticleFetcherService downloads Japanese team articles and reduces them
// to plain text. Blog hosts are crawled politely: a shared rate limiter
// spaces requests and a daily quota bounds total volume.
type ArticleFetcherService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string

	mu           sync.Mutex
	dailyLimit   int
	requestsUsed int
	quotaDay     string
}

// FetchResult is one downloaded article reduced to text
type FetchResult struct {
	URL       string               `json:"url"`
	Title     string               `json:"title"`
	Author    string               `json:"author"`
	Source    models.ArticleSource `json:"source"`
	BodyText  string               `json:"body_text"`
	BodyChars int                  `json:"body_chars"`
	Images    []string             `json:"images,omitempty"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// NewArticleFetcherService creates a fetcher. Zero arguments select the
// defaults: one request per second and 500 fetches per day.
func NewArticleFetcherService(rps float64, dailyLimit int) *ArticleFetcherService {
	if rps <= 0 {
		rps = defaultFetchRPS
	}
	if dailyLimit <= 0 {
		dailyLimit = defaultFetchDailyLimit
	}
	return &ArticleFetcherService{
		httpClient: &http.Client{Timeout: articleFetchTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:  "Mozilla/5.0 (compatible; vgc-scout/1.0; +https://github.com/nkashima/vgc-scout)",
		dailyLimit: dailyLimit,
	}
}

// GetRequestsRemaining returns how many fetches the daily quota still
// allows today.
func (s *ArticleFetcherService) GetRequestsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollQuotaDay()
	remaining := s.dailyLimit - s.requestsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// checkDailyLimit consumes one unit of today's quota, reporting false once
// it is exhausted.
func (s *ArticleFetcherService) checkDailyLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollQuotaDay()
	if s.requestsUsed >= s.dailyLimit {
		return false
	}
	s.requestsUsed++
	return true
}

// rollQuotaDay resets the counter at the first use of a new day. Caller
// holds the lock.
func (s *ArticleFetcherService) rollQuotaDay() {
	today := time.Now().Format("2006-01-02")
	if s.quotaDay != today {
		s.quotaDay = today
		s.requestsUsed = 0
	}
}

// Fetch downloads one article and extracts its title, author, and body
// text. The error outcome is also recorded in the fetch metrics under the
// article's source label.
func (s *ArticleFetcherService) Fetch(ctx context.Context, articleURL string) (*FetchResult, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid article URL %q", articleURL)
	}

	source := models.DetectSource(articleURL)

	if !s.checkDailyLimit() {
		metrics.ArticleFetchesTotal.WithLabelValues(string(source), "limited").Inc()
		return nil, fmt.Errorf("daily fetch limit reached")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.ArticleFetchesTotal.WithLabelValues(string(source), "error").Inc()
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ArticleFetchesTotal.WithLabelValues(string(source), "error").Inc()
		return nil, fmt.Errorf("fetch returned status %d for %s", resp.StatusCode, articleURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		metrics.ArticleFetchesTotal.WithLabelValues(string(source), "error").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &FetchResult{
		URL:       articleURL,
		Source:    source,
		Author:    authorFromURL(parsed, source),
		FetchedAt: time.Now(),
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/plain") {
		result.BodyText = string(body)
	} else {
		title, text, images := extractArticleContent(string(body))
		result.Title = cleanArticleTitle(title, source)
		result.BodyText = text
		result.Images = images
	}
	result.BodyChars = len([]rune(result.BodyText))

	metrics.ArticleFetchesTotal.WithLabelValues(string(source), "ok").Inc()
	log.Printf("[FETCH] %s: %d chars, %d images (%s)", articleURL, result.BodyChars, len(result.Images), source)

	return result, nil
}

// FetchImage downloads one content image referenced by an article. Image
// requests share the rate limiter with article fetches but do not consume
// the daily quota; an article and its handful of images count as one visit.
func (s *ArticleFetcherService) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid image URL %q", imageURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d for %s", resp.StatusCode, imageURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageFetchBytes {
		return nil, fmt.Errorf("image exceeds %d bytes: %s", maxImageFetchBytes, imageURL)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image response from %s", imageURL)
	}

	return data, nil
}

// extractArticleContent reduces an HTML document to its title, visible
// text, and content image URLs. Boilerplate containers are skipped
// wholesale rather than filtered afterwards.
func extractArticleContent(htmlContent string) (title, text string, images []string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// The html package recovers from almost anything; treat a real
		// parse failure as an empty page.
		return "", "", nil
	}

	var sb strings.Builder
	walkContent(doc, &sb, &title, &images, 0)
	return title, collapseBlankLines(sb.String()), images
}

func walkContent(n *html.Node, sb *strings.Builder, title *string, images *[]string, depth int) {
	if depth > 60 {
		return
	}

	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			sb.WriteString(t)
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "aside", "form":
			return
		case "title":
			if *title == "" {
				*title = nodeText(n)
			}
			return
		case "img":
			if len(*images) < maxArticleImages {
				src := attrValue(n, "src")
				if src == "" {
					src = attrValue(n, "data-src")
				}
				if strings.HasPrefix(src, "http") {
					*images = append(*images, src)
				}
			}
			return
		case "p", "div", "section", "article", "table", "tr", "ul", "ol",
			"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "figure":
			sb.WriteString("\n")
		case "br", "li", "td":
			sb.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkContent(c, sb, title, images, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "article", "table",
			"h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			sb.WriteString("\n")
		}
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// collapseBlankLines trims every line and squeezes runs of blank lines to
// one, which keeps the line-oriented parser regexes effective.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// cleanArticleTitle strips the site and author decorations blog platforms
// append to page titles.
func cleanArticleTitle(title string, source models.ArticleSource) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	switch source {
	case models.SourceNote:
		// note page titles read "タイトル｜著者名"
		if i := strings.LastIndexAny(title, "｜|"); i > 0 {
			title = title[:i]
		}
	case models.SourceHatena, models.SourceLivedoor, models.SourceAmeblo:
		// "タイトル - ブログ名" with the blog name last
		if i := strings.LastIndex(title, " - "); i > 0 {
			title = title[:i]
		}
	}

	return strings.TrimSpace(title)
}

// authorFromURL recovers the author handle encoded in each platform's URL
// shape, returning "" when the platform does not expose one.
func authorFromURL(u *url.URL, source models.ArticleSource) string {
	host := strings.ToLower(u.Hostname())
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	switch source {
	case models.SourceNote:
		// note.com/AUTHOR/n/abcdef
		if len(segments) > 0 && segments[0] != "n" {
			return segments[0]
		}
	case models.SourceAmeblo:
		// ameblo.jp/AUTHOR/entry-12345.html
		if len(segments) > 0 {
			return segments[0]
		}
	case models.SourceLivedoor:
		// blog.livedoor.jp/AUTHOR/... or AUTHOR.livedoor.blog
		if strings.HasPrefix(host, "blog.livedoor.jp") && len(segments) > 0 {
			return segments[0]
		}
		if sub := subdomainOf(host); sub != "" {
			return sub
		}
	case models.SourceHatena:
		// AUTHOR.hatenablog.com
		return subdomainOf(host)
	}
	return ""
}

func subdomainOf(host string) string {
	i := strings.Index(host, ".")
	if i <= 0 {
		return ""
	}
	sub := host[:i]
	if sub == "www" || sub == "blog" {
		return ""
	}
	return sub
}
