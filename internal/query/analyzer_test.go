package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

func TestAnalyzeGermanCountQuery(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("Wie viele Türen gibt es?")

	assert.Equal(t, domain.IntentCount, intent.Kind)
	assert.Contains(t, intent.EntityTypes, "IFCDOOR")
	assert.GreaterOrEqual(t, intent.Confidence, 0.7)
}

func TestAnalyzeIntentKinds(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.IntentKind
	}{
		{"german count", "Anzahl der Fenster", domain.IntentCount},
		{"english count", "How many walls are there?", domain.IntentCount},
		{"german spatial", "Welche Räume sind im 2. OG?", domain.IntentSpatial},
		{"english spatial", "What is on floor 3?", domain.IntentSpatial},
		{"german system", "Zeige die Lüftung", domain.IntentSystem},
		{"english system", "electrical equipment overview", domain.IntentSystem},
		{"german find", "Finde Betonstützen", domain.IntentFind},
		{"english find", "list doors", domain.IntentFind},
		{"general", "Projektdaten", domain.IntentGeneral},
	}

	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := a.Analyze(tt.query)
			assert.Equal(t, tt.want, intent.Kind)
		})
	}
}

func TestAnalyzeCountOutranksSpatial(t *testing.T) {
	a := NewAnalyzer()

	// Both a count phrase and a floor reference: count wins.
	intent := a.Analyze("Wie viele Türen gibt es im 2. OG?")

	assert.Equal(t, domain.IntentCount, intent.Kind)
	assert.NotEmpty(t, intent.SpatialTerms)
}

func TestAnalyzeEntityTypes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"german plural", "alle Wände", []string{"IFCWALL", "IFCWALLSTANDARDCASE"}},
		{"english singular", "the window schedule", []string{"IFCWINDOW"}},
		{"explicit type", "show IFCBEAM elements", []string{"IFCBEAM"}},
		{"mixed case explicit", "ifcdoor list", []string{"IFCDOOR"}},
	}

	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := a.Analyze(tt.query)
			for _, want := range tt.want {
				assert.Contains(t, intent.EntityTypes, want)
			}
		})
	}
}

func TestAnalyzeWildcard(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("zeige alle Elemente")

	assert.True(t, intent.HasWildcard())
}

func TestAnalyzeSystemInjectsCharacteristicTypes(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("Übersicht der Lüftung")

	require.Equal(t, domain.IntentSystem, intent.Kind)
	assert.Contains(t, intent.EntityTypes, "IFCDUCTSEGMENT")
	assert.Contains(t, intent.SystemTerms, "hvac")
}

func TestAnalyzeSpatialTerms(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("Türen im 2. OG und im Westflügel")

	assert.Contains(t, intent.SpatialTerms, "2. og")
	assert.Contains(t, intent.SpatialTerms, "westflügel")
}

func TestAnalyzeKeywordsStemmedAndFiltered(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("Wie viele Türen gibt es?")

	// Stopwords drop out, the plural stems to its base form.
	assert.Equal(t, []string{"tür"}, intent.Keywords)
}

func TestAnalyzeEnglishStemming(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("concrete columns near doors")

	assert.Contains(t, intent.Keywords, "concret")
	assert.Contains(t, intent.Keywords, "door")
}

func TestAnalyzeEmptyQuery(t *testing.T) {
	a := NewAnalyzer()

	intent := a.Analyze("   ")

	assert.Equal(t, domain.IntentGeneral, intent.Kind)
	assert.Zero(t, intent.Confidence)
	assert.Empty(t, intent.EntityTypes)
}

func TestAnalyzeConfidenceBounds(t *testing.T) {
	a := NewAnalyzer()

	queries := []string{
		"x",
		"Wie viele Betonwände gibt es im 2. OG bei der Lüftung?",
		"general project information and schedule overview",
	}
	for _, q := range queries {
		intent := a.Analyze(q)
		assert.GreaterOrEqual(t, intent.Confidence, 0.0, q)
		assert.LessOrEqual(t, intent.Confidence, 1.0, q)
	}
}

func TestAnalyzeGeneralLowerConfidence(t *testing.T) {
	a := NewAnalyzer()

	specific := a.Analyze("Wie viele Türen gibt es?")
	vague := a.Analyze("Projektinformationen")

	assert.Greater(t, specific.Confidence, vague.Confidence)
}
