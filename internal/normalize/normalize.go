package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"newsintel/internal/core"
)

// RawRecord is one scraped record as delivered by a source scraper. Field
// names vary by source, so lookups go through alias tables rather than a
// fixed schema.
type RawRecord map[string]any

// Field aliases seen across source scrapers. First match wins.
var (
	titleFields     = []string{"title", "headline", "heading", "name"}
	bodyFields      = []string{"body", "content", "text", "article_text", "description"}
	urlFields       = []string{"url", "link", "source_url", "article_url"}
	sourceFields    = []string{"source", "source_name", "site", "publisher"}
	categoryFields  = []string{"category", "section", "topic"}
	countryFields   = []string{"country", "country_code", "region"}
	languageFields  = []string{"language", "lang", "language_code"}
	publishedFields = []string{"published", "published_at", "publish_date", "date", "pubdate", "timestamp"}
)

var whitespaceRegexp = regexp.MustCompile(`\s+`)

// Boilerplate elements removed from article HTML before text extraction.
const boilerplateSelector = "script, style, noscript, nav, header, footer, aside, form, iframe, figure"

// Normalizer converts heterogeneous scraped records into canonical
// Articles. It is stateless apart from its sanitizer policy and safe for
// concurrent use.
type Normalizer struct {
	policy          *bluemonday.Policy
	defaultLanguage string
	maxKeywords     int
}

// NewNormalizer creates a normalizer that defaults articles without a
// usable language field to defaultLanguage.
func NewNormalizer(defaultLanguage string) *Normalizer {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &Normalizer{
		policy:          bluemonday.StrictPolicy(),
		defaultLanguage: defaultLanguage,
		maxKeywords:     12,
	}
}

// Normalize converts one raw record into a canonical Article skeleton with
// enrichment status Ingested. Records whose title and body are both empty
// after cleaning fail with core.ErrMalformedInput and must be dropped, not
// retried.
func (n *Normalizer) Normalize(record RawRecord) (*core.Article, error) {
	rawTitle := stringField(record, titleFields)
	rawBody := stringField(record, bodyFields)

	title := n.cleanText(rawTitle)
	body := n.cleanText(rawBody)

	if title == "" && body == "" {
		return nil, fmt.Errorf("record has no usable title or body: %w", core.ErrMalformedInput)
	}

	url := strings.TrimSpace(stringField(record, urlFields))
	now := time.Now().UTC()

	article := &core.Article{
		Fingerprint: Fingerprint(url, title),
		Source:      strings.ToLower(strings.TrimSpace(stringField(record, sourceFields))),
		URL:         url,
		Category:    strings.ToLower(strings.TrimSpace(stringField(record, categoryFields))),
		Country:     strings.ToLower(strings.TrimSpace(stringField(record, countryFields))),
		PublishedAt: publishedTime(record, now),
		Language:    n.language(record),
		RawTitle:    rawTitle,
		RawBody:     rawBody,
		Title:       title,
		Body:        body,
		Keywords:    ExtractKeywords(title+" "+body, n.maxKeywords),
		Status:      core.StatusIngested,
		UpdatedAt:   now,
	}

	return article, nil
}

// cleanText strips markup and boilerplate from scraped text and collapses
// whitespace.
func (n *Normalizer) cleanText(raw string) string {
	if raw == "" {
		return ""
	}

	text := raw
	if strings.Contains(raw, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			doc.Find(boilerplateSelector).Remove()
			text = doc.Text()
		}
	}

	// StrictPolicy drops any tags goquery left behind and escapes entities,
	// so unescape afterwards to recover plain text.
	text = html.UnescapeString(n.policy.Sanitize(text))
	text = whitespaceRegexp.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// language returns the record's language code, normalized, or the default.
func (n *Normalizer) language(record RawRecord) string {
	lang := strings.ToLower(strings.TrimSpace(stringField(record, languageFields)))
	if lang == "" {
		return n.defaultLanguage
	}
	// Normalize forms like "en-US" or "en_GB" to the bare ISO 639-1 code.
	lang = strings.ReplaceAll(lang, "_", "-")
	if idx := strings.Index(lang, "-"); idx > 0 {
		lang = lang[:idx]
	}
	return lang
}

// publishedTimeLayouts are the timestamp formats seen across sources.
var publishedTimeLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// publishedTime extracts the publication timestamp from the record,
// falling back to the ingestion time when the field is absent or
// unparseable.
func publishedTime(record RawRecord, fallback time.Time) time.Time {
	for _, field := range publishedFields {
		value, ok := record[field]
		if !ok {
			continue
		}

		switch v := value.(type) {
		case time.Time:
			return v.UTC()
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range publishedTimeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
		}
	}
	return fallback
}

// stringField returns the first non-empty string value among the aliases.
func stringField(record RawRecord, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := record[alias]; ok {
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
