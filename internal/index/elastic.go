package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/showgrid/showgrid/internal/types"
)

// Elastic implements Client against an Elasticsearch-compatible store.
type Elastic struct {
	es        *elasticsearch.Client
	indexName string
}

// NewElastic creates a client for the given addresses and index name.
func NewElastic(addresses []string, indexName string) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}
	return &Elastic{es: es, indexName: indexName}, nil
}

// EnsureIndex creates the content index with its field mapping if it does
// not exist yet. Facets are keyword fields so term filters match exactly;
// title and description are analyzed text.
func (c *Elastic) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists(
		[]string{c.indexName},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", c.indexName, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":            map[string]any{"type": "keyword"},
				"entityType":    map[string]any{"type": "keyword"},
				"title":         map[string]any{"type": "text", "analyzer": "standard"},
				"description":   map[string]any{"type": "text", "analyzer": "standard"},
				"category":      map[string]any{"type": "keyword"},
				"language":      map[string]any{"type": "keyword"},
				"duration":      map[string]any{"type": "integer"},
				"showId":        map[string]any{"type": "keyword"},
				"episodeNumber": map[string]any{"type": "integer"},
				"createdAt":     map[string]any{"type": "date"},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	createRes, err := c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", c.indexName, err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		raw, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("creating index %s [%s]: %s", c.indexName, createRes.Status(), raw)
	}
	return nil
}

func (c *Elastic) Upsert(ctx context.Context, doc types.SearchDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", doc.Key(), err)
	}

	res, err := c.es.Index(
		c.indexName,
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(doc.Key()),
		c.es.Index.WithRefresh("true"),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", doc.Key(), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("indexing %s [%s]: %s", doc.Key(), res.Status(), raw)
	}
	return nil
}

func (c *Elastic) Delete(ctx context.Context, entityType types.EntityType, id string) error {
	key := types.DocumentKey(entityType, id)
	res, err := c.es.Delete(
		c.indexName,
		key,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	defer res.Body.Close()
	// 404 means the document was never indexed or already removed;
	// delete is idempotent.
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("deleting %s [%s]: %s", key, res.Status(), raw)
	}
	return nil
}

func (c *Elastic) Search(ctx context.Context, query string, filters types.SearchFilters) ([]types.SearchDocument, error) {
	return c.execute(ctx, buildSearchBody(query, filters))
}

func (c *Elastic) Featured(ctx context.Context, limit int) ([]types.SearchDocument, error) {
	return c.execute(ctx, buildFeaturedBody(limit))
}

func (c *Elastic) execute(ctx context.Context, body map[string]any) ([]types.SearchDocument, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed [%s]: %s", res.Status(), raw)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source types.SearchDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	// Order as returned by the index: relevance desc, ties index-defined.
	docs := make([]types.SearchDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
