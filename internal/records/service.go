// Package records contains the thin CRUD wrappers for each medical-record
// resource. There is no business logic here beyond query-string
// construction; every method maps one-to-one onto a REST endpoint.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// API is the slice of the base client the record wrappers need.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// Service bundles the per-resource wrappers behind one API client.
type Service struct {
	api API
}

// NewService creates a records Service.
func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) getList(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	raw, err := s.api.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (s *Service) getOne(ctx context.Context, path string, out interface{}) error {
	raw, err := s.api.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (s *Service) create(ctx context.Context, path string, body, out interface{}) error {
	raw, err := s.api.Post(ctx, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, path string, body, out interface{}) error {
	raw, err := s.api.Put(ctx, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (s *Service) delete(ctx context.Context, path string) error {
	_, err := s.api.Delete(ctx, path)
	return err
}

func recentQuery(limit int) url.Values {
	q := url.Values{}
	q.Set("ordering", "-created_at")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
