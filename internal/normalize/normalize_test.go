package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"

	"newsintel/internal/core"
)

func TestNormalizeBasicRecord(t *testing.T) {
	n := NewNormalizer("en")

	article, err := n.Normalize(RawRecord{
		"title":     "Lakers Win Championship",
		"content":   "The Los Angeles Lakers won the championship last night.",
		"url":       "https://example.com/lakers",
		"source":    "ESPN",
		"category":  "Sports",
		"country":   "US",
		"language":  "en",
		"published": "2025-08-20T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if article.Title != "Lakers Win Championship" {
		t.Errorf("Expected cleaned title, got %q", article.Title)
	}
	if article.Source != "espn" {
		t.Errorf("Expected lowercased source 'espn', got %q", article.Source)
	}
	if article.Category != "sports" {
		t.Errorf("Expected lowercased category 'sports', got %q", article.Category)
	}
	if article.Status != core.StatusIngested {
		t.Errorf("Expected status ingested, got %q", article.Status)
	}
	if article.Fingerprint == "" {
		t.Error("Expected a fingerprint")
	}
	want := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	if !article.PublishedAt.Equal(want) {
		t.Errorf("Expected published %v, got %v", want, article.PublishedAt)
	}
}

func TestNormalizeStripsMarkup(t *testing.T) {
	n := NewNormalizer("en")

	article, err := n.Normalize(RawRecord{
		"headline": "Breaking &amp; Exclusive",
		"body":     "<html><nav>Menu</nav><p>Actual   story text.</p><script>alert(1)</script></html>",
		"url":      "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if article.Title != "Breaking & Exclusive" {
		t.Errorf("Expected entities unescaped, got %q", article.Title)
	}
	if article.Body != "Actual story text." {
		t.Errorf("Expected boilerplate and markup stripped, got %q", article.Body)
	}
	if strings.Contains(article.Body, "Menu") || strings.Contains(article.Body, "alert") {
		t.Errorf("Boilerplate leaked into body: %q", article.Body)
	}
	if article.RawBody == article.Body {
		t.Error("Expected raw body to be preserved as scraped")
	}
}

func TestNormalizeMalformedRecord(t *testing.T) {
	n := NewNormalizer("en")

	// Markup-only body cleans down to nothing.
	_, err := n.Normalize(RawRecord{
		"title": "   ",
		"body":  "<div><script>x</script></div>",
		"url":   "https://example.com/empty",
	})
	if err == nil {
		t.Fatal("Expected error for record with no usable text")
	}
	if !errors.Is(err, core.ErrMalformedInput) {
		t.Errorf("Expected ErrMalformedInput, got %v", err)
	}
}

func TestNormalizeLanguageFallback(t *testing.T) {
	n := NewNormalizer("en")

	tests := []struct {
		name     string
		record   RawRecord
		expected string
	}{
		{"missing language", RawRecord{"title": "T", "body": "B"}, "en"},
		{"regional variant", RawRecord{"title": "T", "body": "B", "language": "en-US"}, "en"},
		{"underscore variant", RawRecord{"title": "T", "body": "B", "lang": "pt_BR"}, "pt"},
		{"plain code", RawRecord{"title": "T", "body": "B", "language": "hi"}, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := n.Normalize(tt.record)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if article.Language != tt.expected {
				t.Errorf("Expected language %q, got %q", tt.expected, article.Language)
			}
		})
	}
}

func TestNormalizePublishedFallsBackToIngestionTime(t *testing.T) {
	n := NewNormalizer("en")

	before := time.Now().UTC()
	article, err := n.Normalize(RawRecord{
		"title":     "T",
		"body":      "B",
		"published": "not a date",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if article.PublishedAt.Before(before) {
		t.Errorf("Expected fallback to ingestion time, got %v", article.PublishedAt)
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	a := Fingerprint("https://example.com/x", "Lakers Win!")
	b := Fingerprint("https://example.com/x", "lakers   win")
	if a != b {
		t.Error("Expected fingerprint to ignore case, punctuation, and spacing")
	}

	c := Fingerprint("https://example.com/x", "Lakers Lose")
	if a == c {
		t.Error("Expected a changed title to produce a new fingerprint")
	}

	d := Fingerprint("https://example.com/y", "Lakers Win!")
	if a == d {
		t.Error("Expected a different URL to produce a new fingerprint")
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	text := "election results election polls voters voters voters turnout"

	first := ExtractKeywords(text, 3)
	second := ExtractKeywords(text, 3)

	if len(first) != 3 {
		t.Fatalf("Expected 3 keywords, got %d", len(first))
	}
	if first[0] != "voters" {
		t.Errorf("Expected most frequent word first, got %q", first[0])
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected identical keyword lists, got %v and %v", first, second)
		}
	}
}

func TestExtractKeywordsSkipsStopWords(t *testing.T) {
	keywords := ExtractKeywords("the quick brown fox and the lazy dog", 10)
	for _, keyword := range keywords {
		if keyword == "the" || keyword == "and" {
			t.Errorf("Stop word %q leaked into keywords", keyword)
		}
	}
}
