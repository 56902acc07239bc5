package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"compassbot/internal/model"
)

func TestT(t *testing.T) {
	assert.Contains(t, T(model.LangEnglish, "welcome"), "Political Compass")
	assert.NotEqual(t, T(model.LangEnglish, "welcome"), T(model.LangPersian, "welcome"))

	// Unknown language falls back to English.
	assert.Equal(t, T(model.LangEnglish, "welcome"), T(model.Language("de"), "welcome"))

	// Unknown key degrades to the key itself rather than panicking.
	assert.Equal(t, "no-such-key", T(model.LangEnglish, "no-such-key"))
}

func TestTf(t *testing.T) {
	got := Tf(model.LangEnglish, "question",
		"current", "3",
		"total", "10",
		"statement", "Taxes should be lower.",
	)
	assert.Equal(t, "Question 3 of 10:\n\nTaxes should be lower.", got)

	// Unmatched placeholders are left alone.
	assert.Contains(t, Tf(model.LangEnglish, "quadrant"), "{quadrantName}")
}

func TestAllKeysPresentInBothLanguages(t *testing.T) {
	english := translations[model.LangEnglish]
	persian := translations[model.LangPersian]

	for key := range english {
		_, ok := persian[key]
		assert.True(t, ok, "missing Persian translation for %q", key)
	}
	for key := range persian {
		_, ok := english[key]
		assert.True(t, ok, "missing English translation for %q", key)
	}
}
