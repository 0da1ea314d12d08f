// internal/risk/rugcheck.go
package risk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	DefaultRugCheckURL      = "https://api.rugcheck.xyz"
	DefaultRugCheckMaxScore = 5000
	rugCheckTimeout         = 10 * time.Second
	riskLevelDanger         = "danger"
)

// RugChecker decides whether a token passes the rug-pull check.
type RugChecker interface {
	Check(ctx context.Context, address string) (bool, error)
}

// PassRugChecker accepts every token.
type PassRugChecker struct{}

func (PassRugChecker) Check(context.Context, string) (bool, error) { return true, nil }

// RugCheckReport is the subset of the rugcheck.xyz summary report we read.
type RugCheckReport struct {
	Score           float64        `json:"score"`
	ScoreNormalised float64        `json:"score_normalised"`
	Risks           []RugCheckRisk `json:"risks"`
}

type RugCheckRisk struct {
	Name        string  `json:"name"`
	Level       string  `json:"level"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// RugCheckClient queries rugcheck.xyz token summaries.
type RugCheckClient struct {
	baseURL  string
	maxScore float64
	http     *http.Client
	logger   *zap.Logger
}

// NewRugCheckClient creates a client. Empty baseURL and non-positive
// maxScore fall back to defaults.
func NewRugCheckClient(baseURL string, maxScore float64, logger *zap.Logger) *RugCheckClient {
	if baseURL == "" {
		baseURL = DefaultRugCheckURL
	}
	if maxScore <= 0 {
		maxScore = DefaultRugCheckMaxScore
	}
	return &RugCheckClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxScore: maxScore,
		http:     &http.Client{Timeout: rugCheckTimeout},
		logger:   logger.Named("rugcheck"),
	}
}

// Report fetches the summary report for a mint.
func (c *RugCheckClient) Report(ctx context.Context, address string) (*RugCheckReport, error) {
	url := fmt.Sprintf("%s/v1/tokens/%s/report/summary", c.baseURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rugcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rugcheck status %d", resp.StatusCode)
	}

	var report RugCheckReport
	if err := jsoniter.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode rugcheck report: %w", err)
	}
	return &report, nil
}

// Check fails tokens above the score ceiling or with any danger-level risk.
func (c *RugCheckClient) Check(ctx context.Context, address string) (bool, error) {
	report, err := c.Report(ctx, address)
	if err != nil {
		return false, err
	}

	if report.Score > c.maxScore {
		c.logger.Debug("Rug score above limit",
			zap.String("token", address),
			zap.Float64("score", report.Score),
			zap.Float64("max_score", c.maxScore))
		return false, nil
	}

	for _, r := range report.Risks {
		if strings.EqualFold(r.Level, riskLevelDanger) {
			c.logger.Debug("Danger risk reported",
				zap.String("token", address),
				zap.String("risk", r.Name))
			return false, nil
		}
	}
	return true, nil
}
