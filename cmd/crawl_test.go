package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	categoryPage = `<html><body>
<div id="mw-subcategories"><a href="/wiki/Category:Soviet_films">Soviet films</a></div>
<div id="mw-pages"><div class="mw-category-group"><ul>
<li><a href="/wiki/Tarkovsky">Tarkovsky</a></li>
<li><a href="/wiki/Talk:Stalker">Talk</a></li>
</ul></div></div></body></html>`
	subcategoryPage = `<html><body>
<div id="mw-pages"><div class="mw-category-group"><ul>
<li><a href="/wiki/Stalker">Stalker</a></li>
<li><a href="/wiki/Missing">Missing</a></li>
</ul></div></div></body></html>`
	filmArticle = `<html><body><h1 id="firstHeading">Сталкер</h1>
<table class="infobox"><caption>Сталкер</caption>
<tr><th>Жанр</th><td>драма, фантастика</td></tr>
<tr><th>Режиссёр</th><td>Андрей Тарковский</td></tr>
<tr><th>Страна</th><td>СССР</td></tr>
<tr><th>Год</th><td>1979 год</td></tr></table>
<div class="mw-parser-output"><p>«Сталкер» — советский фильм.</p></div></body></html>`
	personArticle = `<html><body><h1 id="firstHeading">Андрей Тарковский</h1>
<table class="infobox"><caption>Андрей Тарковский</caption><tr><th>Дата рождения</th><td>1932</td></tr></table>
<div class="mw-parser-output"><p>Советский режиссёр.</p></div></body></html>`
)

func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/wiki/Category:Films":        categoryPage,
		"/wiki/Category:Soviet_films": subcategoryPage,
		"/wiki/Stalker":               filmArticle,
		"/wiki/Tarkovsky":             personArticle,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
crawler:
  respect_robots: false
  delay: 0s
  allowed_domains: [127.0.0.1]
logging:
  development: false
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestCrawlCommandWritesCSV(t *testing.T) {
	srv := newWikiServer(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "films.csv")

	root := newRootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetArgs([]string{
		"crawl",
		"--config", writeConfig(t, dir),
		"--seed", srv.URL + "/wiki/Category:Films",
		"--output", out,
		"--concurrency", "2",
		"--progress",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"title", "genre", "director", "country", "year"},
		{"Сталкер", "драма, фантастика", "Андрей Тарковский", "СССР", "1979"},
	}, rows)
}

func TestCrawlCommandRejectsUnknownLocale(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"crawl",
		"--config", writeConfig(t, dir),
		"--locale", "xx",
		"--output", filepath.Join(dir, "films.csv"),
	})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "locale"))
}

func TestCrawlCommandCanceledIsNotAnError(t *testing.T) {
	srv := newWikiServer(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"crawl",
		"--config", writeConfig(t, dir),
		"--seed", srv.URL + "/wiki/Category:Films",
		"--output", filepath.Join(dir, "films.csv"),
	})
	require.NoError(t, root.ExecuteContext(ctx))
}
