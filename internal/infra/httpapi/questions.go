package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"quizforge-session-service/internal/domain"
)

// LoadQuestions fetches the question bank, optionally filtered by category
// and difficulty. Any failure is wrapped as ErrQuestionFetch so callers can
// degrade to an empty session instead of crashing.
func (c *Client) LoadQuestions(ctx context.Context, filter domain.Filter) ([]domain.Question, error) {
	path := "/questions"
	params := url.Values{}
	if filter.Category != "" {
		params.Set("categoria", filter.Category)
	}
	if filter.Difficulty != "" {
		params.Set("dificultad", filter.Difficulty)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var questions []domain.Question
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &questions); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuestionFetch, err)
	}
	return questions, nil
}
