// Package elasticsearch serves catalog listings from an Elasticsearch index
// and keeps that index in sync with product changes.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const service = "elasticsearch"

// Config selects the cluster and index. Transport, when set, carries the
// retry and circuit breaker round trippers.
type Config struct {
	Addresses []string
	Index     string
	Transport http.RoundTripper
}

// Repository implements domain.ProductRepository and domain.ProductIndexer
// on Elasticsearch.
type Repository struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found  bool           `json:"found"`
	Source domain.Product `json:"_source"`
}

// New creates a repository. It does not contact the cluster; call
// EnsureIndex at startup.
func New(cfg Config, logger *slog.Logger) (*Repository, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Repository{client: client, index: cfg.Index, logger: logger}, nil
}

// Ping checks whether the cluster is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	res, err := r.client.Ping(r.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the products index when it does not exist.
func (r *Repository) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		r.logger.Debug("elasticsearch index already exists", slog.String("index", r.index))
		return nil
	}

	res, err = r.client.Indices.Create(
		r.index,
		r.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		r.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if res.IsError() {
		return responseError(res)
	}
	_ = res.Body.Close()

	r.logger.Info("elasticsearch index created", slog.String("index", r.index))
	return nil
}

// List runs the listing query for f.
func (r *Repository) List(ctx context.Context, f domain.Filter) (*domain.ProductPage, error) {
	body, err := json.Marshal(buildSearchQuery(f))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	if res.IsError() {
		return nil, responseError(res)
	}
	defer func() { _ = res.Body.Close() }()

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	products := make([]domain.Product, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		products = append(products, hit.Source)
	}

	n := f.Normalized()
	return &domain.ProductPage{
		Items:      products,
		TotalCount: sr.Hits.Total.Value,
		Page:       n.Page,
		Limit:      n.Limit,
	}, nil
}

// GetByID fetches one product document.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	res, err := r.client.Get(r.index, id, r.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			_ = res.Body.Close()
			return nil, apperrors.NotFound("product", id)
		}
		return nil, responseError(res)
	}
	defer func() { _ = res.Body.Close() }()

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("elasticsearch get: decode response: %w", err)
	}
	if !gr.Found {
		return nil, apperrors.NotFound("product", id)
	}
	return &gr.Source, nil
}

// Index adds or replaces a product document.
func (r *Repository) Index(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal product: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithDocumentID(p.ID),
		r.client.Index.WithRefresh("true"),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	if res.IsError() {
		return responseError(res)
	}
	_ = res.Body.Close()

	r.logger.Debug("indexed product", slog.String("product_id", p.ID))
	return nil
}

// Delete removes a product document; a missing document is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.client.Delete(r.index, id, r.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError(res)
	}
	_ = res.Body.Close()

	r.logger.Debug("deleted product", slog.String("product_id", id))
	return nil
}

// responseError maps an error response to an AppError and closes its body.
func responseError(res *esapi.Response) error {
	return httpclient.ParseResponseError(&http.Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
	}, service)
}
