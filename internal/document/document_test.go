package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head><link rel="next" href="/next"></head><body>
<h1 id="firstHeading"><span>Брат</span> <i>(фильм)</i></h1>
<div id="links">
  <a href="/wiki/A">First <b>link</b></a>
  <a name="anchor">no href</a>
  <a href="">empty</a>
</div>
<p>Lead <script>var x = 1;</script>text<style>.a{}</style></p>
</body></html>`

func TestTexts(t *testing.T) {
	t.Parallel()

	doc, err := New([]byte(samplePage))
	require.NoError(t, err)

	require.Equal(t, []string{"Брат", "(фильм)"}, doc.Texts("#firstHeading"))
	require.Equal(t, "Брат (фильм)", JoinTrimmed(doc.Texts("#firstHeading"), " "))
	require.Equal(t, []string{"Lead ", "text"}, doc.Texts("p"))
	require.Empty(t, doc.Texts("#missing"))
}

func TestLinksAndAttrs(t *testing.T) {
	t.Parallel()

	doc, err := NewFromReader(strings.NewReader(samplePage))
	require.NoError(t, err)

	links := doc.Links("#links a")
	require.Len(t, links, 2)
	require.Equal(t, Link{Href: "/wiki/A", Text: "First link"}, links[0])
	require.Equal(t, Link{Href: "", Text: "empty"}, links[1])

	require.Equal(t, []string{"/next"}, doc.Attrs(`link[rel="next"]`, "href"))
	require.True(t, doc.Exists("#firstHeading"))
	require.False(t, doc.Exists("table.infobox"))
}

func TestTextFragmentsNormalizesNFC(t *testing.T) {
	t.Parallel()

	doc, err := New([]byte("<p>\u0438\u0306</p>"))
	require.NoError(t, err)
	require.Equal(t, []string{"\u0439"}, doc.Texts("p"))
}

func TestJoinTrimmed(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a, b", JoinTrimmed([]string{" a ", "", "  ", "b"}, ", "))
	require.Empty(t, JoinTrimmed(nil, ", "))
}
