package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/clock"
	"quizforge-session-service/internal/domain"
)

// Submitter posts a scored batch to the attempt backend. Implementations do
// not touch session state; the engine owns that.
type Submitter interface {
	SubmitAttempts(ctx context.Context, token string, batch []domain.ScoredAttempt) (domain.AttemptSummary, error)
}

// QuestionView is the presentation-safe shape of the current question: prompt
// and shuffled choices, never the correct answer.
type QuestionView struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Snapshot is an immutable view of engine state for transports to render.
type Snapshot struct {
	SessionID        string        `json:"sessionId"`
	TotalQuestions   int           `json:"totalQuestions"`
	CurrentIndex     int           `json:"currentIndex"`
	Question         *QuestionView `json:"question,omitempty"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Answered         bool          `json:"answered"`
	SelectedAnswer   *string       `json:"selectedAnswer,omitempty"`
	Submitted        bool          `json:"submitted"`
	NoQuestions      bool          `json:"noQuestions"`
}

// Result reports the outcome of locking in one answer.
type Result struct {
	QuestionID     int     `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	Correct        bool    `json:"correct"`
	CorrectAnswer  string  `json:"correctAnswer"`
	TimedOut       bool    `json:"timedOut"`
}

// Engine is one user's run through an ordered question set: current position,
// locked-in answers, the per-question countdown and the final submission.
// All transitions are serialized behind one mutex; the countdown's callbacks
// re-enter through the same guarded operations, so a stale tick or expiry can
// never corrupt a later question's state.
type Engine struct {
	id        string
	user      auth.Context
	submitter Submitter
	countdown *clock.Countdown
	seconds   int
	rnd       *rand.Rand

	mu           sync.Mutex
	questions    []domain.Question
	currentIndex int
	answers      map[int]*string
	answered     map[int]bool
	remaining    int
	submitted    bool
	inFlight     bool
	subscribers  map[chan Snapshot]struct{}
}

// New builds an engine counting down questionSeconds per question.
func New(id string, user auth.Context, submitter Submitter, questionSeconds int) *Engine {
	return newEngine(id, user, submitter, questionSeconds, time.Second, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithTick is a test hook for fast countdowns and deterministic shuffles.
func NewWithTick(id string, user auth.Context, submitter Submitter, questionSeconds int, tick time.Duration, rnd *rand.Rand) *Engine {
	return newEngine(id, user, submitter, questionSeconds, tick, rnd)
}

func newEngine(id string, user auth.Context, submitter Submitter, seconds int, tick time.Duration, rnd *rand.Rand) *Engine {
	if seconds <= 0 {
		seconds = 15
	}
	return &Engine{
		id:          id,
		user:        user,
		submitter:   submitter,
		countdown:   clock.New(tick),
		seconds:     seconds,
		rnd:         rnd,
		answers:     make(map[int]*string),
		answered:    make(map[int]bool),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// ID returns the session id.
func (e *Engine) ID() string { return e.id }

// User returns the auth context the session was started with.
func (e *Engine) User() auth.Context { return e.user }

// Initialize fixes the question sequence for the session. Display order of
// each question's choices is shuffled here, once, and stays stable. The
// countdown starts for question 0 unless the sequence is empty, in which case
// the session is immediately in its terminal "no questions" state.
func (e *Engine) Initialize(questions []domain.Question) {
	e.mu.Lock()
	e.questions = make([]domain.Question, len(questions))
	copy(e.questions, questions)
	for i := range e.questions {
		e.questions[i].DisplayChoices = shuffledChoices(e.rnd, e.questions[i].Choices())
	}
	e.currentIndex = 0
	e.answers = make(map[int]*string)
	e.answered = make(map[int]bool)
	e.submitted = false
	e.inFlight = false
	e.remaining = e.seconds

	var firstID int
	start := len(e.questions) > 0
	if start {
		firstID = e.questions[0].ID
	}
	e.broadcastLocked()
	e.mu.Unlock()

	e.countdown.Stop()
	if start {
		e.startCountdown(firstID)
	}
}

// SelectAnswer locks in an answer for a question. A nil answer records the
// timeout sentinel. Once a question is locked, or once the session is
// submitted, further selections are no-ops; the second return value reports
// whether the selection was applied.
func (e *Engine) SelectAnswer(questionID int, answer *string) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted || e.answered[questionID] {
		return Result{}, false
	}
	q, ok := e.questionLocked(questionID)
	if !ok {
		return Result{}, false
	}

	e.answers[questionID] = answer
	e.answered[questionID] = true
	e.countdown.Stop()
	e.broadcastLocked()

	return Result{
		QuestionID:     questionID,
		SelectedAnswer: answer,
		Correct:        answer != nil && *answer == q.CorrectAnswer,
		CorrectAnswer:  q.CorrectAnswer,
		TimedOut:       answer == nil,
	}, true
}

// Advance moves to the next question. It refuses to move past the last index
// or off an unanswered question, and restarts the countdown for the new
// question unless that one is already answered.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	if e.submitted || len(e.questions) == 0 {
		e.mu.Unlock()
		return false
	}
	current := e.questions[e.currentIndex]
	if !e.answered[current.ID] {
		e.mu.Unlock()
		return false
	}
	if e.currentIndex >= len(e.questions)-1 {
		e.mu.Unlock()
		return false
	}

	e.currentIndex++
	e.remaining = e.seconds
	next := e.questions[e.currentIndex]
	start := !e.answered[next.ID]
	e.broadcastLocked()
	e.mu.Unlock()

	e.countdown.Stop()
	if start {
		e.startCountdown(next.ID)
	}
	return true
}

// Submit scores every question in sequence order (nil selections are never
// correct), stops the countdown and posts the batch. The submitted flag is
// set before the network call so a concurrent Submit is rejected; on failure
// it is rolled back so the user can retry.
func (e *Engine) Submit(ctx context.Context) (domain.AttemptSummary, error) {
	e.mu.Lock()
	if e.submitted || e.inFlight {
		e.mu.Unlock()
		return domain.AttemptSummary{}, domain.ErrAlreadySubmitted
	}
	batch := make([]domain.ScoredAttempt, 0, len(e.questions))
	for _, q := range e.questions {
		selected := e.answers[q.ID]
		batch = append(batch, domain.ScoredAttempt{
			UserID:         e.user.UserID,
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      selected != nil && *selected == q.CorrectAnswer,
		})
	}
	e.submitted = true
	e.inFlight = true
	e.broadcastLocked()
	e.mu.Unlock()

	e.countdown.Stop()
	summary, err := e.submitter.SubmitAttempts(ctx, e.user.Token, batch)

	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		e.submitted = false
		e.broadcastLocked()
		e.mu.Unlock()
		return domain.AttemptSummary{}, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	e.broadcastLocked()
	e.mu.Unlock()
	return summary, nil
}

// Snapshot returns the current state view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel receiving state snapshots, starting with the
// current one. The caller must invoke the cancel function to avoid leaks.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	initial := e.snapshotLocked()
	e.mu.Unlock()

	ch <- initial

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the countdown and drops all subscribers. Sessions are never
// persisted: closing discards the run.
func (e *Engine) Close() {
	e.countdown.Stop()
	e.mu.Lock()
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
	e.mu.Unlock()
}

func (e *Engine) startCountdown(questionID int) {
	e.countdown.Start(e.seconds,
		func(remaining int) { e.applyTick(questionID, remaining) },
		func() { e.SelectAnswer(questionID, nil) },
	)
}

// applyTick updates the visible countdown. Ticks from a cancelled run are
// filtered here: they only apply while their question is still current and
// unanswered.
func (e *Engine) applyTick(questionID, remaining int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted || e.answered[questionID] {
		return
	}
	if len(e.questions) == 0 || e.questions[e.currentIndex].ID != questionID {
		return
	}
	e.remaining = remaining
	e.broadcastLocked()
}

func (e *Engine) questionLocked(id int) (domain.Question, bool) {
	for i := range e.questions {
		if e.questions[i].ID == id {
			return e.questions[i], true
		}
	}
	return domain.Question{}, false
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:      e.id,
		TotalQuestions: len(e.questions),
		CurrentIndex:   e.currentIndex,
		Submitted:      e.submitted,
		NoQuestions:    len(e.questions) == 0,
	}
	if len(e.questions) > 0 {
		q := e.questions[e.currentIndex]
		snap.Question = &QuestionView{ID: q.ID, Prompt: q.Prompt, Choices: q.DisplayChoices}
		snap.Answered = e.answered[q.ID]
		snap.SelectedAnswer = e.answers[q.ID]
		snap.RemainingSeconds = e.remaining
	}
	return snap
}

func (e *Engine) broadcastLocked() {
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// shuffledChoices applies an unbiased Fisher-Yates permutation. Duplicate
// texts survive as-is; the order is fixed for the session once computed.
func shuffledChoices(rnd *rand.Rand, choices []string) []string {
	out := make([]string, len(choices))
	copy(out, choices)
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
