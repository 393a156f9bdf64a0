package locale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

func TestRouteLabelPriority(t *testing.T) {
	t.Parallel()

	ru := Default()
	tests := []struct {
		label string
		want  crawler.Field
		ok    bool
	}{
		{label: "Жанр", want: crawler.FieldGenre, ok: true},
		{label: "Режиссёр", want: crawler.FieldDirector, ok: true},
		{label: "Страна", want: crawler.FieldCountry, ok: true},
		{label: "Год", want: crawler.FieldYear, ok: true},
		// Genre wins over year when both keywords appear.
		{label: "Жанр (год)", want: crawler.FieldGenre, ok: true},
		{label: "Продюсер", ok: false},
		{label: "   ", ok: false},
	}
	for _, tt := range tests {
		got, ok := ru.RouteLabel(tt.label)
		require.Equal(t, tt.ok, ok, tt.label)
		require.Equal(t, tt.want, got, tt.label)
	}
}

func TestContainsKeyword(t *testing.T) {
	t.Parallel()

	ru := Default()
	require.True(t, ru.ContainsKeyword("Художественный ФИЛЬМ"))
	require.True(t, ru.ContainsKeyword("Фильмы США"))
	require.False(t, ru.ContainsKeyword("Актёр"))
	require.False(t, ru.ContainsKeyword(""))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	en, err := Lookup(" EN ")
	require.NoError(t, err)
	require.Equal(t, "en", en.Name)

	_, err = Lookup("xx")
	require.True(t, errors.Is(err, ErrUnknownLocale))

	// Copies must not alias the built-in tables.
	en.Labels[0].Keyword = "mutated"
	again, err := Lookup("en")
	require.NoError(t, err)
	require.Equal(t, "genre", again.Labels[0].Keyword)

	require.Equal(t, []string{"en", "ru"}, Names())
}
