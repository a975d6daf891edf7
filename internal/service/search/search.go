package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/nurbakyt/phone_app/internal/models"
)

// buildQuery assembles a multi_match over the numeric spec fields. Fuzziness
// is not allowed on non-text fields, and lenient keeps a non-numeric query
// string from failing the whole request.
func buildQuery(query string, from, size int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":   query,
				"fields":  []string{"ram", "rom", "battery", "front_cam"},
				"lenient": true,
			},
		},
		"from": from,
		"size": size,
	}
}

// Search runs a multi-match over the phone index and returns the total hit
// count plus the page of matching documents.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.PhoneFeatures, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("search: cannot encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: cluster error: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.PhoneFeatures `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	phones := make([]models.PhoneFeatures, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		phones[i] = hit.Source
	}
	return r.Hits.Total.Value, phones, nil
}
