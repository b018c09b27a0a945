package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSearchReturnsArticleURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("list") != "search" || q.Get("format") != "json" {
			t.Errorf("Unexpected query params: %v", q)
		}
		if q.Get("srsearch") != "quantum computing" {
			t.Errorf("srsearch = %q", q.Get("srsearch"))
		}
		fmt.Fprint(w, `{"query":{"search":[{"title":"Quantum computing"},{"title":"Qubit"},{"title":"Quantum supremacy"}]}}`)
	}))
	defer server.Close()

	provider := NewProvider(server.URL+"/w/api.php", "test-agent", zerolog.Nop())
	urls := provider.Search(context.Background(), "quantum computing", 2)

	if len(urls) != 2 {
		t.Fatalf("Expected 2 urls, got %v", urls)
	}
	wantPath := "/wiki/Quantum_computing"
	if urls[0] != server.URL+wantPath {
		t.Errorf("urls[0] = %s, want %s", urls[0], server.URL+wantPath)
	}
	if urls[1] != server.URL+"/wiki/Qubit" {
		t.Errorf("urls[1] = %s", urls[1])
	}
}

func TestSearchFailuresYieldEmpty(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>captive portal</html>")
		}},
		{"empty result", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"query":{"search":[]}}`)
		}},
		{"missing shape", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"batchcomplete":""}`)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			provider := NewProvider(server.URL, "test-agent", zerolog.Nop())
			if urls := provider.Search(context.Background(), "anything", 5); len(urls) != 0 {
				t.Errorf("Expected empty result, got %v", urls)
			}
		})
	}
}

func TestSearchUnreachableHost(t *testing.T) {
	provider := NewProvider("http://127.0.0.1:1/api.php", "test-agent", zerolog.Nop())
	if urls := provider.Search(context.Background(), "anything", 5); len(urls) != 0 {
		t.Errorf("Expected empty result for unreachable host, got %v", urls)
	}
}
