package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// PageKey identifies one page of a catalog query.
type PageKey struct {
	// Endpoint is the API path, e.g. "/api/offerta-formativa/cerca-corsi"
	Endpoint string

	// Page is the 1-indexed page number
	Page int

	// Query holds the fixed query parameters; a "page" entry is ignored
	Query url.Values
}

// String generates a deterministic Redis key.
// Format: catalog:endpoint:page=N:param1=val1:param2=val2
//
// Example:
//
//	catalog:api/offerta-formativa/cerca-corsi:page=3:order=RND:searchType=u
func (k PageKey) String() string {
	parts := []string{"catalog"}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	parts = append(parts, fmt.Sprintf("page=%d", k.Page))

	keys := make([]string, 0, len(k.Query))
	for key := range k.Query {
		if key == "page" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
	}

	return strings.Join(parts, ":")
}
