package knowledge

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/bettercallrobots/voicebridge/internal/cache"
	"github.com/bettercallrobots/voicebridge/internal/models"
)

const (
	fetchTimeout = 30 * time.Second
	pageCacheTTL = 24 * time.Hour

	// Some sites refuse requests without a browser-like UA.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	contentTypeWebpage = "webpage"
	untitledDocument   = "Untitled Document"

	// DefaultTag marks documents ingested without a caller-supplied tag.
	DefaultTag = "Untagged"
)

var reSpaces = regexp.MustCompile(`\s+`)

// Content containers tried in order: semantic HTML5 first, then common
// id/class conventions. Body and full-document text are the fallbacks.
var contentSelectors = []string{
	"main", "article", `[role="main"]`,
	"#main", "#content", ".content", ".main", ".post", ".article",
}

// Processor turns a URL into a chunked Document ready for indexing.
// It never returns an error: any failure collapses into a single-chunk
// error Document so one bad URL cannot take down a batch.
type Processor struct {
	client  *http.Client
	chunker *Chunker
	enc     Encoding
	pages   cache.PageCache // optional
	log     *logrus.Entry
}

func NewProcessor(chunker *Chunker, enc Encoding, pages cache.PageCache, l *logrus.Logger) *Processor {
	if l == nil {
		l = logrus.New()
	}
	return &Processor{
		client:  &http.Client{Timeout: fetchTimeout},
		chunker: chunker,
		enc:     enc,
		pages:   pages,
		log:     l.WithField("component", "processor"),
	}
}

func (p *Processor) ProcessURL(ctx context.Context, url, name, tag string) *models.Document {
	raw, err := p.fetch(ctx, url)
	if err != nil {
		return p.errorDocument(url, err)
	}

	clean, err := extractMainContent(raw)
	if err != nil {
		return p.errorDocument(url, err)
	}

	if name == "" {
		name = extractTitle(raw)
	}
	if tag == "" {
		tag = DefaultTag
	}

	meta := models.DocumentMetadata{
		URL:         url,
		Name:        name,
		Tag:         tag,
		Domain:      domainOf(url),
		ScrapedAt:   time.Now().UTC().Format(time.RFC3339),
		ContentType: contentTypeWebpage,
		WordCount:   len(strings.Fields(clean)),
		CharCount:   utf8.RuneCountInString(clean),
	}

	chunks := p.chunker.Chunk(clean, meta)
	total := 0
	for _, ch := range chunks {
		total += ch.TokenCount
	}

	p.log.WithFields(logrus.Fields{
		"url":    url,
		"chunks": len(chunks),
		"tokens": total,
	}).Info("document processed")

	return &models.Document{
		ID:          docID(url),
		Chunks:      chunks,
		Metadata:    meta,
		TotalTokens: total,
	}
}

func (p *Processor) fetch(ctx context.Context, url string) (string, error) {
	if p.pages != nil {
		if body, hit, err := p.pages.GetPage(ctx, url); err == nil && hit {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: failed to fetch %s", resp.StatusCode, url)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := string(b)

	if p.pages != nil {
		if err := p.pages.SetPage(ctx, url, body, pageCacheTTL); err != nil {
			p.log.WithField("url", url).WithError(err).Warn("page cache write failed")
		}
	}
	return body, nil
}

func (p *Processor) errorDocument(url string, cause error) *models.Document {
	p.log.WithField("url", url).WithError(cause).Warn("processing failed")

	msg := fmt.Sprintf("Error processing URL %s: %v", url, cause)
	tokens := len(p.enc.Encode(msg))

	meta := models.DocumentMetadata{URL: url, Error: true}
	return &models.Document{
		ID: fmt.Sprintf("error_%d", time.Now().Unix()),
		Chunks: []models.Chunk{{
			Content:    msg,
			TokenCount: tokens,
			Metadata: models.ChunkMetadata{
				DocumentMetadata: meta,
				ChunkIndex:       0,
				TotalChunks:      1,
			},
		}},
		Metadata:    meta,
		TotalTokens: tokens,
	}
}

// extractMainContent strips non-content elements and picks the first
// matching content container.
func extractMainContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer, aside, .ad, #ad, .advertisement").Remove()

	var sel *goquery.Selection
	for _, q := range contentSelectors {
		if s := doc.Find(q).First(); s.Length() > 0 {
			sel = s
			break
		}
	}
	if sel == nil {
		if b := doc.Find("body").First(); b.Length() > 0 {
			sel = b
		}
	}

	var text string
	if sel != nil {
		text = sel.Text()
	} else {
		text = doc.Text()
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(text, " ")), nil
}

// extractTitle parses the raw markup again: extraction may have removed the
// header the h1 fallback lives in.
func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return untitledDocument
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return untitledDocument
}

func domainOf(url string) string {
	u, err := nurl.Parse(url)
	if err != nil {
		return ""
	}
	return u.Host
}

// docID is unique enough for a single-process index: collisions need the
// same second and the same URL hash bucket.
func docID(url string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return fmt.Sprintf("doc_%d_%d", time.Now().Unix(), h.Sum32()%10000)
}
