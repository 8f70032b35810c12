package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
	"github.com/willpearse/bayesianflows/ports"
)

// Config configures the HTTP inference client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClient implements ports.Sampler against an external inference
// service speaking the /v1/fit JSON protocol: named data arrays in,
// named draw arrays (or a structured failure) out. The client is a
// boundary adapter, not a sampler: chain concurrency, warmup and the
// numerics all belong to the engine. It never retries a failed fit.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPClient creates an inference client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, core.NewConfigurationError("sampler_url", "must be set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}, nil
}

// fitRequestBody is the wire request.
type fitRequestBody struct {
	Model      string    `json:"model"`
	Parameters []string  `json:"parameters"`
	GroupID    []int     `json:"group_id"`
	Predictor  []float64 `json:"predictor"`
	Response   []float64 `json:"response"`
	GroupCount int       `json:"group_count"`
	Chains     int       `json:"chains"`
	Iterations int       `json:"iterations"`
	Warmup     int       `json:"warmup"`
}

// fitResponseBody is the wire response: draws on success, error plus
// diagnostics on failure. Diagnostics accompany either outcome.
type fitResponseBody struct {
	Draws       map[string][]float64 `json:"draws"`
	Error       string               `json:"error,omitempty"`
	Diagnostics struct {
		Converged  *bool   `json:"converged,omitempty"`
		RHatMax    float64 `json:"rhat_max,omitempty"`
		Divergent  int     `json:"divergent,omitempty"`
		EngineNote string  `json:"engine_note,omitempty"`
	} `json:"diagnostics"`
}

// Fit serializes the request, invokes the engine, and shape-checks the
// draws. Non-convergence, failure payloads and timeouts surface as
// core.ErrInference with the engine's diagnostics attached; malformed
// draw shapes surface as core.ErrShapeMismatch.
func (c *HTTPClient) Fit(ctx context.Context, req ports.FitRequest) (*model.PosteriorSample, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	body := fitRequestBody{
		Model:      req.Model.Name,
		Parameters: req.Model.Parameters,
		GroupID:    req.Data.GroupID,
		Predictor:  req.Data.Predictor,
		Response:   req.Data.Response,
		GroupCount: req.Data.GroupCount,
		Chains:     req.Config.Chains,
		Iterations: req.Config.Iterations,
		Warmup:     req.Config.Warmup,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal fit request: %w", err)
	}

	timeout := req.Config.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	fitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(fitCtx, http.MethodPost, c.baseURL+"/v1/fit", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build fit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Includes deadline expiry: all chains must report before the
		// configured timeout elapses.
		return nil, core.NewInferenceError(c.baseURL, "request failed", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewInferenceError(c.baseURL, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.NewInferenceError(c.baseURL,
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respRaw))), nil)
	}

	var decoded fitResponseBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, core.NewInferenceError(c.baseURL, "unmarshal response", err)
	}
	if decoded.Error != "" {
		return nil, core.NewInferenceError(c.baseURL,
			fmt.Sprintf("engine error: %s (%s)", decoded.Error, diagnosticsSummary(decoded)), nil)
	}
	if decoded.Diagnostics.Converged != nil && !*decoded.Diagnostics.Converged {
		return nil, core.NewInferenceError(c.baseURL,
			fmt.Sprintf("engine reported non-convergence (%s)", diagnosticsSummary(decoded)), nil)
	}

	sample := &model.PosteriorSample{Draws: decoded.Draws}
	if err := sample.ValidateShape(req.Model); err != nil {
		return nil, err
	}
	return sample, nil
}

func diagnosticsSummary(r fitResponseBody) string {
	parts := []string{
		fmt.Sprintf("rhat_max=%v", r.Diagnostics.RHatMax),
		fmt.Sprintf("divergent=%d", r.Diagnostics.Divergent),
	}
	if r.Diagnostics.EngineNote != "" {
		parts = append(parts, r.Diagnostics.EngineNote)
	}
	return strings.Join(parts, ", ")
}
