package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CompatEmbedder calls a self-hosted, OpenAI-compatible embeddings endpoint.
// The Authorization header is optional (local servers may not require one)
// and dimensionality is learned from the first response.
type CompatEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client

	mu  sync.Mutex
	dim int
}

func NewCompat(baseURL, apiKey, model string) *CompatEmbedder {
	return &CompatEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *CompatEmbedder) ModelName() string { return e.model }

func (e *CompatEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

func (e *CompatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type compatRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type compatResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *CompatEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.baseURL == "" {
		return nil, fmt.Errorf("%w: missing embedding endpoint", ErrNotConfigured)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(compatRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, wrapNetworkErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var er compatResponse
		if json.Unmarshal(payload, &er) == nil && er.Error != nil {
			return nil, fmt.Errorf("embeddings: %s: %s", resp.Status, er.Error.Message)
		}
		return nil, fmt.Errorf("embeddings: request failed: %s", resp.Status)
	}

	var parsed compatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(parsed.Data), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings: response index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	e.mu.Lock()
	if e.dim == 0 && len(vecs[0]) > 0 {
		e.dim = len(vecs[0])
	}
	e.mu.Unlock()
	return vecs, nil
}
