package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Open Trivia Database endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Trivia is one multiple-choice question as OpenTDB serves it.
type Trivia struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
}

type apiResponse struct {
	Results []Trivia `json:"results"`
}

// The bank stores Spanish labels; OpenTDB serves English ones. Unknown
// values pass through untranslated.
var categories = map[string]string{
	"General Knowledge": "Cultura general",
	"Video Games":       "Videojuegos",
	"History":           "Historia",
	"Art":               "Arte",
	"Science":           "Ciencia",
	"Geography":         "Geografía",
	"Entertainment":     "Entretenimiento",
	"Sports":            "Deportes",
	"Politics":          "Política",
	"Animals":           "Animales",
	"Vehicles":          "Vehículos",
	"Computers":         "Informática",
}

var difficulties = map[string]string{
	"easy":   "fácil",
	"medium": "media",
	"hard":   "difícil",
}

// TranslateCategory maps an OpenTDB category to the bank's label.
func TranslateCategory(category string) string {
	if translated, ok := categories[category]; ok {
		return translated
	}
	return category
}

// TranslateDifficulty maps an OpenTDB difficulty to the bank's label.
func TranslateDifficulty(difficulty string) string {
	if translated, ok := difficulties[difficulty]; ok {
		return translated
	}
	return difficulty
}

// Client fetches trivia batches for seeding the question bank.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch pulls amount multiple-choice questions.
func (c *Client) Fetch(ctx context.Context, amount int) ([]Trivia, error) {
	if amount <= 0 {
		amount = 10
	}
	url := fmt.Sprintf("%s/api.php?amount=%d&type=multiple", c.baseURL, amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trivia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch trivia: status %d", resp.StatusCode)
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode trivia: %w", err)
	}
	return decoded.Results, nil
}
