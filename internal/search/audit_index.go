// Package search mirrors audit entries into an Elasticsearch index so
// they can be queried by free text. Indexing is best-effort and never
// affects the primary write.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/adventskalender/backend/internal/models"
)

type AuditIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewAuditIndex(es *elasticsearch.Client, index string) *AuditIndex {
	return &AuditIndex{ES: es, Index: index}
}

func (a *AuditIndex) IndexEvent(ctx context.Context, event *models.AuditEvent) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(event); err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	res, err := a.ES.Index(
		a.Index,
		&buf,
		a.ES.Index.WithContext(ctx),
		a.ES.Index.WithDocumentID(strconv.FormatUint(uint64(event.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index audit event: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index audit event: %s", res.String())
	}
	return nil
}

func (a *AuditIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.AuditEvent, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"action^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := a.ES.Search(
		a.ES.Search.WithContext(ctx),
		a.ES.Search.WithIndex(a.Index),
		a.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search audit events: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search audit events: %s", res.String())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.AuditEvent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	events := make([]models.AuditEvent, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		events[i] = hit.Source
	}
	return r.Hits.Total.Value, events, nil
}
