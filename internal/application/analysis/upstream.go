package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
)

const upstreamTimeout = 30 * time.Second

// UpstreamAnalyzer forwards analysis requests to the engine over HTTP.
type UpstreamAnalyzer struct {
	baseURL string
	client  *http.Client
	logger  logger.Interface
}

var _ Analyzer = (*UpstreamAnalyzer)(nil)

func NewUpstreamAnalyzer(baseURL string, logger logger.Interface) *UpstreamAnalyzer {
	return &UpstreamAnalyzer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: upstreamTimeout},
		logger:  logger,
	}
}

func (a *UpstreamAnalyzer) Analyze(ctx context.Context, userID string, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode analysis request", err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to build analysis request", err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", userID)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Errorw("analysis upstream unreachable",
			"error", err,
			"user_id", userID,
		)
		return nil, errors.NewInternalError("analysis engine unavailable", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		a.logger.Errorw("analysis upstream returned error",
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return nil, errors.NewInternalError(fmt.Sprintf("analysis engine returned status %d", resp.StatusCode))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewInternalError("failed to decode analysis result", err.Error())
	}

	return &result, nil
}
