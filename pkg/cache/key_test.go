package cache

import (
	"net/url"
	"testing"
)

func TestPageKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  PageKey
		want string
	}{
		{
			name: "endpoint without query",
			key: PageKey{
				Endpoint: "/api/offerta-formativa/cerca-corsi",
				Page:     1,
			},
			want: "catalog:api/offerta-formativa/cerca-corsi:page=1",
		},
		{
			name: "query params are sorted",
			key: PageKey{
				Endpoint: "/api/offerta-formativa/cerca-corsi/",
				Page:     42,
				Query: url.Values{
					"searchType": []string{"u"},
					"order":      []string{"RND"},
					"lingua":     []string{""},
				},
			},
			want: "catalog:api/offerta-formativa/cerca-corsi:page=42:lingua=:order=RND:searchType=u",
		},
		{
			name: "page in query is ignored",
			key: PageKey{
				Endpoint: "/search",
				Page:     7,
				Query: url.Values{
					"page":  []string{"1"},
					"order": []string{"RND"},
				},
			},
			want: "catalog:search:page=7:order=RND",
		},
		{
			name: "empty endpoint",
			key:  PageKey{Page: 3},
			want: "catalog:page=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageKey_Deterministic(t *testing.T) {
	q := url.Values{}
	q.Set("b", "2")
	q.Set("a", "1")
	q.Set("c", "3")

	key := PageKey{Endpoint: "/search", Page: 5, Query: q}
	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPageKey_DistinctPages(t *testing.T) {
	a := PageKey{Endpoint: "/search", Page: 1}
	b := PageKey{Endpoint: "/search", Page: 2}
	if a.String() == b.String() {
		t.Error("different pages must produce different keys")
	}
}
