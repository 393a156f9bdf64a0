package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercases host", raw: "HTTPS://RU.Wikipedia.ORG/wiki/A", want: "https://ru.wikipedia.org/wiki/A"},
		{name: "drops default port", raw: "https://example.com:443/a", want: "https://example.com/a"},
		{name: "drops fragment", raw: "https://example.com/a#section", want: "https://example.com/a"},
		{name: "sorts query", raw: "https://example.com/a?b=2&a=1", want: "https://example.com/a?a=1&b=2"},
		{name: "canonical escapes", raw: "https://example.com/wiki/A_(b)", want: "https://example.com/wiki/A_%28b%29"},
		{
			name: "encodes cyrillic",
			raw:  "https://ru.wikipedia.org/wiki/Фильм",
			want: "https://ru.wikipedia.org/wiki/%D0%A4%D0%B8%D0%BB%D1%8C%D0%BC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLCollapsesEncodings(t *testing.T) {
	t.Parallel()

	a, err := NormalizeURL("https://ru.wikipedia.org/wiki/Фильм")
	require.NoError(t, err)
	b, err := NormalizeURL("https://ru.wikipedia.org/wiki/%D0%A4%D0%B8%D0%BB%D1%8C%D0%BC")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://ru.wikipedia.org/wiki/Категория:Фильмы")
	require.NoError(t, err)

	tests := []struct {
		name string
		href string
		want URLTarget
		ok   bool
	}{
		{name: "relative path", href: "/wiki/Film", want: "https://ru.wikipedia.org/wiki/Film", ok: true},
		{name: "absolute", href: "https://en.wikipedia.org/wiki/Film", want: "https://en.wikipedia.org/wiki/Film", ok: true},
		{name: "protocol relative", href: "//ru.wikipedia.org/wiki/X", want: "https://ru.wikipedia.org/wiki/X", ok: true},
		{
			name: "query page link",
			href: "/w/index.php?title=X&pagefrom=B",
			want: "https://ru.wikipedia.org/w/index.php?pagefrom=B&title=X",
			ok:   true,
		},
		{name: "empty", href: "", ok: false},
		{name: "whitespace", href: "   ", ok: false},
		{name: "malformed", href: "http://[::1", ok: false},
		{name: "javascript", href: "javascript:void(0)", ok: false},
		{name: "mailto", href: "mailto:someone@example.com", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Resolve(tt.href, base)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNilBase(t *testing.T) {
	t.Parallel()

	_, ok := Resolve("/wiki/A", nil)
	require.False(t, ok)

	_, ok = ResolveString("/wiki/A", "http://[::1")
	require.False(t, ok)
}

func TestRecordDefaults(t *testing.T) {
	t.Parallel()

	rec := NewRecord("Титаник")
	require.Equal(t, []string{"Титаник", Unspecified, Unspecified, Unspecified, Unspecified}, rec.Values())
	require.True(t, rec.Valid())

	rec.Set(FieldGenre, "драма")
	rec.Set(FieldGenre, "  ")
	require.Equal(t, "драма", rec.Get(FieldGenre))

	blank := NewRecord("")
	require.Equal(t, Unspecified, blank.Title)
	require.False(t, Record{}.Valid())
	require.Len(t, Header(), len(rec.Values()))
}
