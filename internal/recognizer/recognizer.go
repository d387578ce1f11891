// Package recognizer defines the pluggable external recognition model.
// Callers never special-case whether a model is configured: they invoke the
// interface and an absent or failing model simply contributes nothing.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/scrubward/scrubward/internal/types"
)

// Candidate is one span proposed by the external model.
type Candidate struct {
	Label string     `json:"label"`
	Span  types.Span `json:"span"`
	Score float64    `json:"score"`
}

// Recognizer proposes candidate spans with scores for a content unit.
// Implementations may be slow; callers bound them with a context deadline.
type Recognizer interface {
	Recognize(ctx context.Context, content string) ([]Candidate, error)
}

// Noop is the recognizer used when no external model is enabled.
type Noop struct{}

func (Noop) Recognize(context.Context, string) ([]Candidate, error) { return nil, nil }

// HTTPRecognizer calls a remote recognition service over HTTP. The service
// receives {"model": ..., "content": ...} and answers a JSON array of
// candidates.
type HTTPRecognizer struct {
	Endpoint string
	Model    string
	Client   *http.Client
}

// NewHTTP builds an HTTPRecognizer with the given per-call timeout.
func NewHTTP(endpoint, model string, timeout time.Duration) *HTTPRecognizer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPRecognizer{
		Endpoint: endpoint,
		Model:    model,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, content string) ([]Candidate, error) {
	body, err := json.Marshal(map[string]string{"model": r.Model, "content": content})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognizer: unexpected status %s", resp.Status)
	}
	var out []Candidate
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Static returns fixed candidates regardless of input. Test seam.
type Static struct {
	Candidates []Candidate
	Err        error
}

func (s Static) Recognize(context.Context, string) ([]Candidate, error) {
	return s.Candidates, s.Err
}
