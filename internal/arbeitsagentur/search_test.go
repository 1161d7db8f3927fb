package arbeitsagentur

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(context.Background(), zap.NewNop())
	c.APIURL = srv.URL
	return c
}

func TestSearchDecodesItemsAndBuildsLinks(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != apiKey {
			t.Fatalf("missing API key header")
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"stellenangebote": [
				{
					"hashId": "abc123",
					"refnr": "10001-XYZ",
					"titel": "Data Analyst (m/w/d)",
					"arbeitgeber": "Acme GmbH",
					"arbeitsort": {"ort": "Berlin", "region": "Berlin"}
				},
				{
					"refnr": "10002-XYZ",
					"beruf": "Berater",
					"arbeitgeber": "Beta AG",
					"arbeitsort": {"ort": "Bonn", "region": "Nordrhein-Westfalen"}
				}
			]
		}`))
	})

	jobs, err := client.Search(&SearchParams{Query: "data analyst", Location: "Berlin", RadiusKM: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs.Len() != 2 {
		t.Fatalf("expected 2 jobs, got %d", jobs.Len())
	}

	if got := gotQuery.Get("was"); got != "data analyst" {
		t.Fatalf("unexpected was param: %q", got)
	}
	if got := gotQuery.Get("wo"); got != "Berlin" {
		t.Fatalf("unexpected wo param: %q", got)
	}
	if got := gotQuery.Get("umkreis"); got != "50" {
		t.Fatalf("unexpected umkreis param: %q", got)
	}
	if got := gotQuery.Get("size"); got != "25" {
		t.Fatalf("expected default size, got %q", got)
	}
	if got := gotQuery.Get("page"); got != "1" {
		t.Fatalf("expected default page, got %q", got)
	}

	first := jobs.FindByKey("abc123")
	if first == nil {
		t.Fatalf("expected job keyed by hashId")
	}
	if first.Title() != "Data Analyst (m/w/d)" {
		t.Fatalf("unexpected title: %q", first.Title())
	}
	if first.Location() != "Berlin" {
		t.Fatalf("unexpected location: %q", first.Location())
	}
	if !strings.HasPrefix(first.URL, jobsucheURL) {
		t.Fatalf("expected generated public link, got %q", first.URL)
	}

	second := jobs.FindByKey("10002-XYZ")
	if second == nil {
		t.Fatalf("expected job keyed by refnr fallback")
	}
	if second.Title() != "Berater" {
		t.Fatalf("expected occupation fallback title, got %q", second.Title())
	}
	if second.Location() != "Bonn, Nordrhein-Westfalen" {
		t.Fatalf("unexpected location: %q", second.Location())
	}
}

func TestSearchCapsRadius(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"stellenangebote": []}`))
	})

	if _, err := client.Search(&SearchParams{Query: "consultant", RadiusKM: 500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotQuery.Get("umkreis"); got != "200" {
		t.Fatalf("expected capped radius 200, got %q", got)
	}
}

func TestSearchBadStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	if _, err := client.Search(&SearchParams{Query: "data"}); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestBuildParamsSkipsZeroValues(t *testing.T) {
	q := buildParams(&SearchParams{Query: "engineer", Page: 1})

	if got := q.Get("was"); got != "engineer" {
		t.Fatalf("unexpected was param: %q", got)
	}
	if q.Has("wo") || q.Has("umkreis") || q.Has("size") {
		t.Fatalf("zero-value params must be omitted, got %v", q)
	}
}

func TestPublicJobURL(t *testing.T) {
	link := PublicJobURL(" abc123 ", "data analyst", "Berlin", 500)
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := parsed.Query()
	if q.Get("id") != "abc123" {
		t.Fatalf("unexpected id: %q", q.Get("id"))
	}
	if q.Get("angebotsart") != "1" {
		t.Fatalf("expected angebotsart with query context")
	}
	if q.Get("umkreis") != "200" {
		t.Fatalf("expected capped radius, got %q", q.Get("umkreis"))
	}

	if PublicJobURL("", "data", "Berlin", 10) != "" {
		t.Fatalf("expected empty link without job id")
	}
}
