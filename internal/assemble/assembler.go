// Package assemble renders selected chunks into the final context
// text handed to the LLM-consuming caller.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vantera-labs/bimctx/internal/budget"
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// Language selects the header and label wording.
type Language string

const (
	LangGerman  Language = "de"
	LangEnglish Language = "en"
)

// Options control rendering.
type Options struct {
	// Compact renders one-line summaries instead of full bodies.
	Compact bool

	// IncludeHeader prepends the localized context preamble.
	IncludeHeader bool

	// IncludeMetadata adds a per-chunk metadata block in full mode.
	IncludeMetadata bool

	// HighlightKeywords bolds intent keywords in full-mode bodies.
	HighlightKeywords bool

	// Language picks the localization, defaulting to German.
	Language Language
}

// DefaultOptions render full bodies with header and metadata.
func DefaultOptions() Options {
	return Options{
		IncludeHeader:     true,
		IncludeMetadata:   true,
		HighlightKeywords: true,
		Language:          LangGerman,
	}
}

const previewLength = 200

const maxCompactTypeTags = 5

// scoreTieWindow is the score distance within which the secondary
// sort key decides chunk order.
const scoreTieWindow = 0.1

var intentLabels = map[Language]map[domain.IntentKind]string{
	LangGerman: {
		domain.IntentCount:   "Zählabfrage",
		domain.IntentFind:    "Suchabfrage",
		domain.IntentSpatial: "Raumbezogene Abfrage",
		domain.IntentSystem:  "Systemabfrage",
		domain.IntentGeneral: "Allgemeine Abfrage",
	},
	LangEnglish: {
		domain.IntentCount:   "Count query",
		domain.IntentFind:    "Search query",
		domain.IntentSpatial: "Spatial query",
		domain.IntentSystem:  "System query",
		domain.IntentGeneral: "General query",
	},
}

var kindLabels = map[Language]map[domain.ChunkKind]string{
	LangGerman: {
		domain.ChunkSpatial:     "Räumliche Gruppen",
		domain.ChunkSystem:      "Gebäudesysteme",
		domain.ChunkElementType: "Elementtypen",
		domain.ChunkHybrid:      "Auswertungen",
	},
	LangEnglish: {
		domain.ChunkSpatial:     "Spatial groups",
		domain.ChunkSystem:      "Building systems",
		domain.ChunkElementType: "Element types",
		domain.ChunkHybrid:      "Analyses",
	},
}

// Assembler renders ranked selections into context text. Stateless.
type Assembler struct{}

// NewAssembler returns a context assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble groups the selected chunks by kind, orders each group by
// score, renders the blocks and computes the context metadata. The
// ranked list supplies the scores; chunks absent from it score zero.
func (a *Assembler) Assemble(chunks []domain.Chunk, ranked []domain.RankedChunk, intent domain.QueryIntent, opts Options) domain.AssembledContext {
	if opts.Language == "" {
		opts.Language = LangGerman
	}

	scores := make(map[string]float64, len(ranked))
	for _, rc := range ranked {
		scores[rc.Chunk.ID] = rc.Score
	}

	groups := make(map[domain.ChunkKind][]domain.Chunk)
	for _, c := range chunks {
		groups[c.Kind] = append(groups[c.Kind], c)
	}

	var blocks []string
	index := 1
	for _, kind := range budget.SortKinds(groups) {
		group := groups[kind]
		sortGroup(group, scores, intent)
		for _, c := range group {
			if opts.Compact {
				blocks = append(blocks, renderCompact(&c))
			} else {
				blocks = append(blocks, renderFull(&c, index, intent, opts))
			}
			index++
		}
	}

	ctx := domain.AssembledContext{
		Blocks:   blocks,
		Metadata: buildMetadata(chunks),
	}
	if opts.IncludeHeader {
		ctx.Header = renderHeader(chunks, intent, opts.Language)
	}
	return ctx
}

// sortGroup orders by descending score. Scores within the tie window
// fall back to a secondary key: ascending floor for spatial queries,
// otherwise ascending token count so compact chunks come first.
func sortGroup(group []domain.Chunk, scores map[string]float64, intent domain.QueryIntent) {
	sort.SliceStable(group, func(i, j int) bool {
		si, sj := scores[group[i].ID], scores[group[j].ID]
		d := si - sj
		if d > scoreTieWindow || d < -scoreTieWindow {
			return si > sj
		}
		if intent.Kind == domain.IntentSpatial {
			fi, fj := floorOf(&group[i]), floorOf(&group[j])
			if fi != fj {
				return fi < fj
			}
		}
		return group[i].TokenCount < group[j].TokenCount
	})
}

func floorOf(c *domain.Chunk) int {
	if c.Metadata.Floor != nil {
		return *c.Metadata.Floor
	}
	return int(^uint(0) >> 1) // unknown floors sort last
}

func renderHeader(chunks []domain.Chunk, intent domain.QueryIntent, lang Language) string {
	var b strings.Builder
	if lang == LangGerman {
		b.WriteString("## Gebäudekontext\n")
		fmt.Fprintf(&b, "Abfragetyp: %s\n", intentLabels[lang][intent.Kind])
		if len(intent.EntityTypes) > 0 && !intent.HasWildcard() {
			fmt.Fprintf(&b, "Gesuchte Elemente: %s\n", strings.Join(intent.EntityTypes, ", "))
		}
		if len(intent.SpatialTerms) > 0 {
			fmt.Fprintf(&b, "Räumlicher Bezug: %s\n", strings.Join(intent.SpatialTerms, ", "))
		}
		fmt.Fprintf(&b, "Ausgewählte Abschnitte: %d\n", len(chunks))
	} else {
		b.WriteString("## Building context\n")
		fmt.Fprintf(&b, "Query type: %s\n", intentLabels[lang][intent.Kind])
		if len(intent.EntityTypes) > 0 && !intent.HasWildcard() {
			fmt.Fprintf(&b, "Requested elements: %s\n", strings.Join(intent.EntityTypes, ", "))
		}
		if len(intent.SpatialTerms) > 0 {
			fmt.Fprintf(&b, "Spatial context: %s\n", strings.Join(intent.SpatialTerms, ", "))
		}
		fmt.Fprintf(&b, "Selected sections: %d\n", len(chunks))
	}
	return b.String()
}

// renderCompact emits a summary line, a few type tags and a short
// content preview.
func renderCompact(c *domain.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s", c.Summary)

	tags := c.Metadata.EntityTypes
	if len(tags) > maxCompactTypeTags {
		tags = tags[:maxCompactTypeTags]
	}
	if len(tags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(tags, ", "))
	}

	preview := c.Content
	if len(preview) > previewLength {
		// Back up to a rune boundary so umlauts are never cut in half.
		cut := previewLength
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}
	if preview != "" {
		fmt.Fprintf(&b, "\n  %s", strings.ReplaceAll(preview, "\n", " "))
	}
	return b.String()
}

func renderFull(c *domain.Chunk, index int, intent domain.QueryIntent, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %d. %s\n", index, c.Summary)

	if opts.IncludeMetadata {
		if len(c.Metadata.EntityTypes) > 0 {
			fmt.Fprintf(&b, "Typen: %s\n", strings.Join(c.Metadata.EntityTypes, ", "))
		}
		if loc := locationLine(c); loc != "" {
			fmt.Fprintf(&b, "Ort: %s\n", loc)
		}
		fmt.Fprintf(&b, "Tokens: %d\n", c.TokenCount)
	}

	body := c.Content
	if opts.HighlightKeywords && len(intent.Keywords) > 0 {
		body = highlight(body, intent.Keywords)
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func locationLine(c *domain.Chunk) string {
	var parts []string
	if c.Metadata.Building != "" {
		parts = append(parts, c.Metadata.Building)
	}
	if c.Metadata.Floor != nil {
		parts = append(parts, fmt.Sprintf("Etage %d", *c.Metadata.Floor))
	}
	if c.Metadata.Zone != "" {
		parts = append(parts, c.Metadata.Zone)
	}
	return strings.Join(parts, ", ")
}

// highlight bolds whole-word keyword matches. Keywords are stemmed,
// so a match may extend over the word's inflected tail. A single
// combined pattern with longest-first alternation keeps overlapping
// keywords from bolding the same word twice.
func highlight(text string, keywords []string) string {
	sorted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			sorted = append(sorted, kw)
		}
	}
	if len(sorted) == 0 {
		return text
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, kw := range sorted {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)[a-zA-Zäöüß]*`)
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, "**$0**")
}

func buildMetadata(chunks []domain.Chunk) domain.ContextMetadata {
	meta := domain.ContextMetadata{
		TotalChunks:  len(chunks),
		ChunksByKind: make(map[domain.ChunkKind]int),
	}
	types := make(map[string]bool)
	for _, c := range chunks {
		meta.TotalTokens += c.TokenCount
		meta.ChunksByKind[c.Kind]++
		for _, t := range c.Metadata.EntityTypes {
			types[t] = true
		}
	}
	meta.Coverage = 5 * len(types)
	if meta.Coverage > 100 {
		meta.Coverage = 100
	}
	return meta
}
