package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"mnemos.app/archive/core/config"
	"mnemos.app/archive/internal/model"
)

type typesenseSearcher struct {
	client     *typesense.Client
	collection string
}

// NewTypesense builds a Searcher backed by a Typesense collection, creating
// the collection on first use.
func NewTypesense(ctx context.Context, cfg config.TypesenseConfig) (Searcher, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)

	s := &typesenseSearcher{client: client, collection: cfg.Collection}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensuring collection %q: %w", cfg.Collection, err)
	}
	return s, nil
}

func (s *typesenseSearcher) ensureCollection(ctx context.Context) error {
	_, err := s.client.Collections().Create(ctx, &api.CollectionSchema{
		Name: s.collection,
		Fields: []api.Field{
			{Name: "content", Type: "string"},
			{Name: "kind", Type: "string", Facet: pointer.True()},
			{Name: "sender", Type: "string", Facet: pointer.True()},
			{Name: "ts", Type: "int64", Sort: pointer.True()},
		},
	})
	if err != nil {
		var httpErr *typesense.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == 409 {
			// Collection already exists.
			return nil
		}
		return err
	}
	return nil
}

func (s *typesenseSearcher) IndexMessage(ctx context.Context, msg *model.Message) error {
	if msg.ContentText == "" {
		return nil
	}
	doc := map[string]any{
		"id":      strconv.FormatInt(msg.ID, 10),
		"content": msg.ContentText,
		"kind":    string(msg.Kind),
		"sender":  msg.Sender,
		"ts":      msg.Timestamp.Unix(),
	}
	// The client reads params.DirtyValues unconditionally; nil would panic.
	if _, err := s.client.Collection(s.collection).Documents().Upsert(ctx, doc, &api.DocumentIndexParameters{}); err != nil {
		return fmt.Errorf("indexing message %d: %w", msg.ID, err)
	}
	return nil
}

func (s *typesenseSearcher) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	result, err := s.client.Collection(s.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("content"),
		PerPage: pointer.Int(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	return hitIDs(result), nil
}

// hitIDs extracts message ids from search hits, skipping anything malformed.
func hitIDs(result *api.SearchResult) []int64 {
	if result == nil || result.Hits == nil {
		return nil
	}

	ids := make([]int64, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		raw, ok := (*hit.Document)["id"].(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
