package summarize

import "strings"

// sentenceTerminators are the runes treated as end-of-sentence marks,
// covering both ASCII and CJK punctuation.
const sentenceTerminators = ".!?。！？"

// SplitSentences splits text into sentences on terminal punctuation. The
// splitter is intentionally simple; the chunker only needs boundaries good
// enough to avoid cutting a sentence in half.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if strings.ContainsRune(sentenceTerminators, r) {
			atEnd := i == len(runes)-1
			followedBySpace := !atEnd && (runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t')
			// CJK sentences are not space-separated, so their terminators
			// split unconditionally.
			cjk := r == '。' || r == '！' || r == '？'
			if atEnd || followedBySpace || cjk {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// ChunkSentences packs sentences into chunks of at most maxChars each,
// never splitting inside a sentence. A single sentence longer than
// maxChars becomes its own oversized chunk rather than being cut.
func ChunkSentences(text string, maxChars int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
