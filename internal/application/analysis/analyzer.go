// Package analysis fronts the chart-analysis engine. The gateway only
// meters and proxies; the engine itself lives upstream.
package analysis

import "context"

// Request is the analysis input forwarded upstream untouched.
type Request struct {
	Symbol    string `json:"symbol" binding:"required"`
	Timeframe string `json:"timeframe" binding:"required"`
	Notes     string `json:"notes,omitempty"`
}

// Result is the upstream engine's verdict, passed through to the caller.
type Result struct {
	Symbol   string `json:"symbol"`
	Verdict  string `json:"verdict"`
	Summary  string `json:"summary"`
	Score    int    `json:"score"`
	ModelRef string `json:"model_ref,omitempty"`
}

// Analyzer runs one chart analysis for a user.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, req Request) (*Result, error)
}
