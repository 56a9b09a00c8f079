package httpapi

import (
	"context"
	"net/http"

	"quizforge-session-service/internal/domain"
)

// SubmitAttempts posts a scored batch and returns the backend's summary.
// The canonical wire schema is camelCase (userId/questionId/selectedAnswer/
// isCorrect); the legacy snake_case variant is not emitted. An empty batch is
// sent as [] rather than null. Submission without a token never issues a
// request.
func (c *Client) SubmitAttempts(ctx context.Context, token string, batch []domain.ScoredAttempt) (domain.AttemptSummary, error) {
	if token == "" {
		return domain.AttemptSummary{}, domain.ErrNoToken
	}
	if batch == nil {
		batch = []domain.ScoredAttempt{}
	}

	var summary domain.AttemptSummary
	if err := c.doJSON(ctx, http.MethodPost, "/attempts/answers", token, batch, &summary); err != nil {
		return domain.AttemptSummary{}, err
	}
	return summary, nil
}

// UserHistory returns the caller's attempt history, newest first.
func (c *Client) UserHistory(ctx context.Context, token string) ([]domain.AttemptRecord, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}
	var records []domain.AttemptRecord
	if err := c.doJSON(ctx, http.MethodGet, "/user/historial", token, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UserSummary returns the caller's recent per-run aggregates.
func (c *Client) UserSummary(ctx context.Context, token string) ([]domain.SummaryRecord, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}
	var records []domain.SummaryRecord
	if err := c.doJSON(ctx, http.MethodGet, "/user/resumen", token, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
