package domain

// Question is a multiple-choice trivia question as served by the question bank.
type Question struct {
	ID               int      `json:"id"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`

	// DisplayChoices is the shuffled presentation order of all answer texts.
	// It is computed once when a session loads the question and is stable for
	// the lifetime of the session.
	DisplayChoices []string `json:"-"`
}

// Choices returns the incorrect answers plus the correct one, unshuffled.
func (q Question) Choices() []string {
	out := make([]string, 0, len(q.IncorrectAnswers)+1)
	out = append(out, q.IncorrectAnswers...)
	out = append(out, q.CorrectAnswer)
	return out
}

// Filter narrows a question fetch by category and/or difficulty.
// Zero values mean "any". The wire parameter names are the bank's
// Spanish ones (categoria, dificultad).
type Filter struct {
	Category   string
	Difficulty string
}

// ScoredAttempt is one question's recorded outcome inside a submitted batch.
// SelectedAnswer is nil when the countdown expired before the user chose
// (the NoAnswer sentinel); a nil answer is never correct.
type ScoredAttempt struct {
	UserID         int     `json:"userId"`
	QuestionID     int     `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
}

// AttemptSummary is the backend's scoring response for a submitted batch.
type AttemptSummary struct {
	UserID     int    `json:"userId"`
	Username   string `json:"username"`
	Correct    int    `json:"correct"`
	Incorrect  int    `json:"incorrect"`
	Percentage string `json:"percentage"`
}

// AttemptRecord is one row of a user's attempt history.
type AttemptRecord struct {
	ID             int    `json:"id"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	AnsweredAt     string `json:"answeredAt"`
	Username       string `json:"username"`
}

// SummaryRecord is one aggregate row from the backend's per-run summaries.
type SummaryRecord struct {
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
	CreatedAt string `json:"created_at"`
}

// Accuracy recomputes the percentage of correct answers locally, for history
// views that filter records client-side. Returns 0 for an empty record.
func (r SummaryRecord) Accuracy() float64 {
	total := r.Correct + r.Incorrect
	if total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(total) * 100
}

// User is an account as managed through the admin endpoints. Password is
// write-only: sent on create, never returned by the backend.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}
