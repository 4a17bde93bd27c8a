package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryURLSource_EscapesQuery(t *testing.T) {
	s := NewQueryURLSource("https://search.example/html/?q=%s")

	urls, err := s.FindPages(context.Background(), "tech journalists & editors", 3)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://search.example/html/?q=tech+journalists+%26+editors", urls[0])
}

func TestQueryURLSource_EmptyQuery(t *testing.T) {
	s := NewQueryURLSource("https://search.example/?q=%s")
	_, err := s.FindPages(context.Background(), "", 3)
	require.Error(t, err)
}
