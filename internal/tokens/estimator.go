// Package tokens approximates token counts for text blobs without a
// tokenizer dependency. Estimates are deterministic heuristics: good
// enough for chunk sizing and budget decisions, not for billing.
package tokens

import (
	"math"
	"regexp"
	"strings"
)

// Heuristic tuning constants. Numbers and punctuation tend to tokenize
// less efficiently than plain words; collapsed whitespace tokenizes
// cheaply.
const (
	charsPerToken    = 4.0
	digitRunBonus    = 0.5
	specialCharBonus = 0.3
	whitespaceCredit = 0.2

	// longUnitThreshold is the length above which a sentence unit is
	// further split on comma/semicolon boundaries.
	longUnitThreshold = 1000
)

var (
	digitRunRe   = regexp.MustCompile(`[0-9]+`)
	specialRe    = regexp.MustCompile(`[^a-zA-Z0-9_\s]`)
	whitespaceRe = regexp.MustCompile(`\s{2,}`)
	sentenceRe   = regexp.MustCompile(`[.!?]+\s+`)
	clauseRe     = regexp.MustCompile(`[,;]\s*`)
)

// Estimate approximates the token count of text. It is deterministic,
// side-effect-free and returns 0 for the empty string.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	estimate := float64(len(text)) / charsPerToken
	estimate += float64(len(digitRunRe.FindAllStringIndex(text, -1))) * digitRunBonus
	estimate += float64(len(specialRe.FindAllStringIndex(text, -1))) * specialCharBonus
	estimate -= float64(len(whitespaceRe.FindAllStringIndex(text, -1))) * whitespaceCredit

	if estimate < 0 {
		estimate = 0
	}
	return int(math.Ceil(estimate))
}

// SplitByLimit splits text into pieces whose estimated token count does
// not exceed maxTokens. Text is first split into sentence-like units;
// any unit longer than ~1000 characters is further split on comma and
// semicolon boundaries. Units are greedily accumulated into pieces,
// flushing when the next unit would overflow. No content is lost:
// joining all pieces reconstitutes every non-empty source unit.
func SplitByLimit(text string, maxTokens int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxTokens <= 0 || Estimate(text) <= maxTokens {
		return []string{text}
	}

	units := splitUnits(text)

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, unit := range units {
		unitTokens := Estimate(unit)
		if currentTokens > 0 && currentTokens+unitTokens > maxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(unit)
		currentTokens += unitTokens
	}
	flush()

	return pieces
}

// splitUnits breaks text into sentence-like units, further splitting
// overlong units on clause boundaries.
func splitUnits(text string) []string {
	var units []string
	for _, sentence := range splitKeepingContent(text, sentenceRe) {
		if len(sentence) <= longUnitThreshold {
			units = append(units, sentence)
			continue
		}
		units = append(units, splitKeepingContent(sentence, clauseRe)...)
	}
	return units
}

// splitKeepingContent splits on a separator pattern, trimming
// surrounding whitespace and dropping empty segments. The separator's
// terminal punctuation stays attached to the preceding segment.
func splitKeepingContent(text string, re *regexp.Regexp) []string {
	var segments []string
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		// Keep the punctuation, drop the trailing whitespace.
		end := loc[1]
		for end > loc[0] && isSpace(text[end-1]) {
			end--
		}
		if seg := strings.TrimSpace(text[last:end]); seg != "" {
			segments = append(segments, seg)
		}
		last = loc[1]
	}
	if seg := strings.TrimSpace(text[last:]); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
