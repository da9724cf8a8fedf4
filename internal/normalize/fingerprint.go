package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var fingerprintNoise = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Fingerprint computes the stable content fingerprint identifying one
// article regardless of re-scraping. Identical (url, title) inputs always
// yield the same fingerprint; a re-scrape with a changed title yields a
// new one.
func Fingerprint(url, title string) string {
	normalized := strings.ToLower(title)
	normalized = fingerprintNoise.ReplaceAllString(normalized, "")
	normalized = whitespaceRegexp.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(url)))
	h.Write([]byte{'\n'})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
