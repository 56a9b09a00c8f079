package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/domain"
	"quizforge-session-service/internal/session"
)

// QuestionRepository serves normalized question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context, filter domain.Filter) ([]domain.Question, error)
}

// SessionRepository tracks live sessions (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(eng *session.Engine)
	Get(id string) (*session.Engine, bool)
	Delete(id string)
}

// SessionService owns the session lifecycle: one engine per connected client,
// created on entry with a valid token, discarded on disconnect or submission.
type SessionService struct {
	questions QuestionRepository
	sessions  SessionRepository
	submitter session.Submitter
	seconds   int
	tick      time.Duration
}

func NewSessionService(questions QuestionRepository, sessions SessionRepository, submitter session.Submitter, questionSeconds int) *SessionService {
	return &SessionService{
		questions: questions,
		sessions:  sessions,
		submitter: submitter,
		seconds:   questionSeconds,
		tick:      time.Second,
	}
}

// NewSessionServiceWithTick is a test hook for fast countdowns.
func NewSessionServiceWithTick(questions QuestionRepository, sessions SessionRepository, submitter session.Submitter, questionSeconds int, tick time.Duration) *SessionService {
	s := NewSessionService(questions, sessions, submitter, questionSeconds)
	s.tick = tick
	return s
}

// Start loads a question set and creates an initialized engine for the user.
// A failed fetch degrades to an empty session (terminal "no questions" state)
// rather than an error; only a missing token refuses the session outright.
func (s *SessionService) Start(ctx context.Context, user auth.Context, filter domain.Filter) (*session.Engine, error) {
	if !user.Authenticated() {
		return nil, domain.ErrNoToken
	}

	questions, err := s.questions.GetQuestions(ctx, filter)
	if err != nil {
		if !errors.Is(err, domain.ErrQuestionFetch) {
			return nil, err
		}
		log.Printf("question fetch failed, starting empty session: %v", err)
		questions = nil
	}

	eng := session.NewWithTick(uuid.NewString(), user, s.submitter, s.seconds, s.tick,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	eng.Initialize(questions)
	s.sessions.Put(eng)
	return eng, nil
}

// Get looks up a live session.
func (s *SessionService) Get(id string) (*session.Engine, error) {
	eng, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return eng, nil
}

// End stops the session's countdown and discards it.
func (s *SessionService) End(id string) {
	eng, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	eng.Close()
	s.sessions.Delete(id)
}
