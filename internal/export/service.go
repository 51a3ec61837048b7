// Package export pulls a bundle of the user's records from the server
// for download or backup.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"
)

// Format selects the serialization of the exported bundle.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Scope selects which record categories the bundle includes.
type Scope string

const (
	ScopeAll           Scope = "all"
	ScopeMedical       Scope = "medical"
	ScopeFamilyHistory Scope = "family_history"
	ScopeDocuments     Scope = "documents"
)

// Request describes one export run.
type Request struct {
	Format Format
	Scope  Scope
	Since  *time.Time
}

func (r *Request) validate() error {
	switch r.Format {
	case FormatJSON, FormatCSV:
	case "":
		r.Format = FormatJSON
	default:
		return fmt.Errorf("unknown export format %q", r.Format)
	}
	switch r.Scope {
	case ScopeAll, ScopeMedical, ScopeFamilyHistory, ScopeDocuments:
	case "":
		r.Scope = ScopeAll
	default:
		return fmt.Errorf("unknown export scope %q", r.Scope)
	}
	return nil
}

func (r *Request) query() url.Values {
	q := url.Values{}
	q.Set("format", string(r.Format))
	q.Set("scope", string(r.Scope))
	if r.Since != nil {
		q.Set("since", r.Since.UTC().Format(time.RFC3339))
	}
	return q
}

// API is the slice of the base client the exporter needs.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
}

// Service drives record exports.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Export fetches the bundle described by req and writes it to w.
// It returns the number of bytes written.
func (s *Service) Export(ctx context.Context, req Request, w io.Writer) (int64, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}
	raw, err := s.api.Get(ctx, "/export?"+req.query().Encode())
	if err != nil {
		return 0, err
	}
	n, err := w.Write(raw)
	if err != nil {
		return int64(n), fmt.Errorf("write export: %w", err)
	}
	return int64(n), nil
}
