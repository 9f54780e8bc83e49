package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/efdb-export/internal/config"
	"github.com/IshaanNene/efdb-export/internal/fetcher"
	"github.com/IshaanNene/efdb-export/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func envelope(t *testing.T, fragment string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"parse": map[string]any{
			"text": map[string]string{"*": fragment},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Wiki.BaseURL = srv.URL

	client, err := NewClient(srv.URL, fetcher.NewHTTPFetcher(cfg, testLogger), testLogger)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client, srv
}

func TestPageHTML(t *testing.T) {
	var gotPath, gotPage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		if r.URL.Query().Get("action") != "parse" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write(envelope(t, `<div><h1 id="x">Iron Ingot</h1></div>`))
	})

	doc, err := client.PageHTML(context.Background(), "Iron Ingot")
	if err != nil {
		t.Fatalf("PageHTML: %v", err)
	}

	if gotPath != "/api.php" {
		t.Errorf("path: got %q", gotPath)
	}
	// Spaces become underscores in the page title.
	if gotPage != "Iron_Ingot" {
		t.Errorf("page param: got %q", gotPage)
	}

	h1 := htmlquery.FindOne(doc, `//h1[@id="x"]`)
	if h1 == nil || htmlquery.InnerText(h1) != "Iron Ingot" {
		t.Error("rendered fragment not parsed")
	}
}

func TestPageHTMLMissingParseText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"missingtitle"}}`))
	})

	_, err := client.PageHTML(context.Background(), "Nope")
	if err == nil {
		t.Fatal("expected error for missing parse.text")
	}
	var parseErr *types.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %T", err)
	}
	if !errors.Is(err, types.ErrNoParseText) {
		t.Errorf("expected ErrNoParseText, got %v", err)
	}
}

func TestPageHTMLServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.PageHTML(context.Background(), "Smelter")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d", fetchErr.StatusCode)
	}
}

// domFetcher fakes a browser fetcher: it returns the rendered DOM of the
// API response, with the JSON inside the viewer's pre block.
type domFetcher struct {
	body string
}

func (f *domFetcher) Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error) {
	return &fetcher.Response{StatusCode: http.StatusOK, Body: []byte(f.body)}, nil
}

func (f *domFetcher) Close() error { return nil }

func (f *domFetcher) Type() string { return "browser" }

func TestPageFragmentRenderedEnvelope(t *testing.T) {
	body := `<html><head></head><body>` +
		`<pre>{"parse":{"text":{"*":"<div>Smelter</div>"}}}</pre>` +
		`</body></html>`
	client, err := NewClient("https://endfield.wiki.gg", &domFetcher{body: body}, testLogger)
	if err != nil {
		t.Fatal(err)
	}

	fragment, err := client.PageFragment(context.Background(), "Smelter")
	if err != nil {
		t.Fatalf("PageFragment: %v", err)
	}
	if string(fragment) != "<div>Smelter</div>" {
		t.Errorf("fragment: got %q", fragment)
	}
}

func TestPageFragmentRenderedEnvelopeNoPre(t *testing.T) {
	client, err := NewClient("https://endfield.wiki.gg",
		&domFetcher{body: `<html><body><p>challenge page</p></body></html>`}, testLogger)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.PageFragment(context.Background(), "Smelter")
	if err == nil {
		t.Fatal("expected error for rendered body without a pre block")
	}
	var parseErr *types.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %T", err)
	}
}
