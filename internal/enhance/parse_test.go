package enhance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumberedList(t *testing.T) {
	raw := `Here are some query variations:

1. "technology journalists Germany"
2. tech reporters berlin
3.   'startup press contacts'
Some commentary the model added.
4. technology journalists Germany

Hope this helps!`

	got := parseNumberedList(raw)
	assert.Equal(t, []string{
		"technology journalists Germany",
		"tech reporters berlin",
		"startup press contacts",
		"technology journalists Germany",
	}, got)
}

func TestParseNumberedList_NoMatches(t *testing.T) {
	assert.Empty(t, parseNumberedList("the model refused to answer"))
}

func TestFinalize_NormalizesDedupesAndTruncates(t *testing.T) {
	in := []string{
		"  Tech   Reporters  Berlin ",
		"tech reporters berlin",
		"AI",
		"climate journalists",
		"Music Critics",
		"food writers",
	}
	got := finalize(in, 3)
	assert.Equal(t, []string{
		"tech reporters berlin",
		"climate journalists",
		"music critics",
	}, got)
}

func TestFinalize_ZeroTargetKeepsAll(t *testing.T) {
	got := finalize([]string{"one query", "two query"}, 0)
	assert.Len(t, got, 2)
}

func TestStripWrappingQuotes(t *testing.T) {
	assert.Equal(t, "plain", stripWrappingQuotes(`"plain"`))
	assert.Equal(t, "nested", stripWrappingQuotes(`"'nested'"`))
	assert.Equal(t, `mid"dle`, stripWrappingQuotes(`mid"dle`))
}
