package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"example.com/medfleet/services/lorry/config"
)

// Index names for dashboard documents
const (
	IndexTransactions  = "lorry-transactions"
	IndexVerifications = "stock-verifications"
	IndexHolds         = "driver-holds"
)

// Client is an interface for Elasticsearch operations
type Client interface {
	IndexDocument(ctx context.Context, index, id string, document []byte) error
	SearchDocuments(ctx context.Context, index string, query interface{}) ([]json.RawMessage, error)
}

// esClient implements the Client interface
type esClient struct {
	client *elasticsearch.Client
	prefix string
}

// NewClient creates a new Elasticsearch client
func NewClient(cfg *config.ElasticsearchConfig) (Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.URLs,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	esCfg.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	// Test the connection
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch error: %s", res.String())
	}

	return &esClient{
		client: client,
		prefix: cfg.IndexPrefix,
	}, nil
}

// indexName returns the full index name with prefix
func (e *esClient) indexName(index string) string {
	if e.prefix == "" {
		return index
	}
	return fmt.Sprintf("%s-%s", e.prefix, index)
}

// IndexDocument indexes a document
func (e *esClient) IndexDocument(ctx context.Context, index, id string, document []byte) error {
	req := esapi.IndexRequest{
		Index:      e.indexName(index),
		DocumentID: id,
		Body:       bytes.NewReader(document),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}

// SearchDocuments searches an index and returns the raw hit sources
func (e *esClient) SearchDocuments(ctx context.Context, index string, query interface{}) ([]json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.indexName(index)),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	docs := make([]json.RawMessage, len(result.Hits.Hits))
	for i, hit := range result.Hits.Hits {
		docs[i] = hit.Source
	}
	return docs, nil
}
