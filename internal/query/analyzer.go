// Package query turns free-text questions into structured intents and
// index access plans. The analyzer understands German and English
// building queries; the optimizer orders index probes by selectivity.
package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

var (
	countRe = regexp.MustCompile(`(?i)\b(wie viele|wieviele|anzahl|how many|count|number of)\b`)

	spatialKindRe = regexp.MustCompile(`(?i)\b(etage|geschoss|stockwerk|obergeschoss|untergeschoss|erdgeschoss|keller|og|ug|eg|floor|level|storey|story|basement|wo|where|flügel|wing)\b`)

	findRe = regexp.MustCompile(`(?i)\b(zeige|zeig|finde|liste|welche|welcher|nenne|show|find|list|locate|give me)\b`)

	explicitTypeRe = regexp.MustCompile(`(?i)\bifc[a-z]+\b`)

	floorTermRe = regexp.MustCompile(`(?i)\b(\d+)\.?\s*(og|ug|obergeschoss|untergeschoss|etage|stock|stockwerk|floor|level|storey)\b`)

	floorPrefixRe = regexp.MustCompile(`(?i)\b(floor|level|etage|ebene)\s*(-?\d+)\b`)

	groundFloorRe = regexp.MustCompile(`(?i)\b(eg|erdgeschoss|ground floor|keller|basement|untergeschoss)\b`)

	zoneTermRe = regexp.MustCompile(`(?i)\b(raum|zimmer|zone|bereich|room|area|sector)\s*([A-Za-z0-9.-]*)`)

	tokenRe = regexp.MustCompile(`[a-zA-Z0-9äöüÄÖÜßéèêàáâ*]+`)
)

// Analyzer classifies queries. It is stateless and safe for
// concurrent use.
type Analyzer struct{}

// NewAnalyzer returns a query analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze interprets a free-text query and returns a structured
// intent. An empty query yields a general intent with zero confidence.
func (a *Analyzer) Analyze(query string) domain.QueryIntent {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.QueryIntent{Kind: domain.IntentGeneral}
	}

	lower := strings.ToLower(query)
	tokens := tokenRe.FindAllString(lower, -1)

	spatialTerms := extractSpatialTerms(lower)
	systemNames, systemTerms := extractSystemTerms(tokens)
	entityTypes := extractEntityTypes(query, tokens, systemNames)
	keywords := extractKeywords(tokens)

	kind := classify(lower, spatialTerms, systemTerms)

	confidence := 0.5
	if kind != domain.IntentGeneral {
		confidence += 0.2
	}
	if len(entityTypes) > 0 {
		confidence += 0.2
	}
	if len(spatialTerms) > 0 {
		confidence += 0.1
	}
	if len(systemTerms) > 0 {
		confidence += 0.1
	}
	if len(keywords) < 2 {
		confidence -= 0.1
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.QueryIntent{
		Kind:         kind,
		EntityTypes:  entityTypes,
		Keywords:     keywords,
		SpatialTerms: spatialTerms,
		SystemTerms:  systemTerms,
		Confidence:   confidence,
	}
}

// classify runs the pattern cascade. Count outranks spatial outranks
// system outranks find; the first match wins.
func classify(lower string, spatialTerms, systemTerms []string) domain.IntentKind {
	switch {
	case countRe.MatchString(lower):
		return domain.IntentCount
	case len(spatialTerms) > 0 || spatialKindRe.MatchString(lower):
		return domain.IntentSpatial
	case len(systemTerms) > 0:
		return domain.IntentSystem
	case findRe.MatchString(lower):
		return domain.IntentFind
	default:
		return domain.IntentGeneral
	}
}

func extractEntityTypes(original string, tokens []string, systemNames []string) []string {
	seen := make(map[string]bool)
	var types []string
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	// Explicit schema types take precedence over term mapping.
	for _, m := range explicitTypeRe.FindAllString(original, -1) {
		add(strings.ToUpper(m))
	}

	for _, tok := range tokens {
		if wildcardTokens[tok] {
			add(domain.WildcardEntityType)
			continue
		}
		for _, t := range termToTypes[tok] {
			add(t)
		}
	}

	for _, name := range systemNames {
		for _, t := range systemCharacteristicTypes[name] {
			add(t)
		}
	}
	return types
}

func extractSpatialTerms(lower string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, m := range floorTermRe.FindAllString(lower, -1) {
		add(m)
	}
	for _, m := range floorPrefixRe.FindAllString(lower, -1) {
		add(m)
	}
	for _, m := range groundFloorRe.FindAllString(lower, -1) {
		add(m)
	}
	for _, m := range zoneTermRe.FindAllString(lower, -1) {
		add(m)
	}
	for _, w := range namedWings {
		if strings.Contains(lower, w) {
			add(w)
		}
	}
	return terms
}

// extractSystemTerms returns matched discipline names and the full
// term list (names plus the keywords that hit).
func extractSystemTerms(tokens []string) (names []string, terms []string) {
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	disciplines := make([]string, 0, len(systemKeywords))
	for name := range systemKeywords {
		disciplines = append(disciplines, name)
	}
	sort.Strings(disciplines)

	seen := make(map[string]bool)
	for _, name := range disciplines {
		matched := false
		for _, kw := range systemKeywords[name] {
			if tokenSet[kw] {
				matched = true
				if !seen[kw] {
					seen[kw] = true
					terms = append(terms, kw)
				}
			}
		}
		if matched {
			names = append(names, name)
			if !seen[name] {
				seen[name] = true
				terms = append(terms, name)
			}
		}
	}
	return names, terms
}

func extractKeywords(tokens []string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range tokens {
		if len(tok) < 3 || stopwords[tok] || wildcardTokens[tok] {
			continue
		}
		stemmed := stem(tok)
		if stemmed == "" || seen[stemmed] {
			continue
		}
		seen[stemmed] = true
		keywords = append(keywords, stemmed)
	}
	return keywords
}

// stem strips common German (en, er, e) and English (es, s) suffixes.
// It operates on runes so umlauts count as single characters.
func stem(word string) string {
	r := []rune(word)
	n := len(r)
	switch {
	case n >= 5 && (strings.HasSuffix(word, "en") || strings.HasSuffix(word, "er")):
		return string(r[:n-2])
	case n >= 5 && strings.HasSuffix(word, "es"):
		return string(r[:n-2])
	case n >= 5 && strings.HasSuffix(word, "e"):
		return string(r[:n-1])
	case n >= 4 && strings.HasSuffix(word, "s"):
		return string(r[:n-1])
	default:
		return word
	}
}
