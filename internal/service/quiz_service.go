package service

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"compassbot/internal/ai"
	"compassbot/internal/cache"
	"compassbot/internal/metrics"
	"compassbot/internal/model"
	"compassbot/internal/repository"
)

// QuizService is the session state machine. Platform adapters feed it
// abstract events; it loads and writes the session store, calls the
// generation backend, and answers with exactly one Action per event.
//
// All mutations for a session id run under a striped mutex keyed by the
// id, and answer events carry the question index they target, so
// duplicate webhook deliveries advance the cursor exactly once.
type QuizService struct {
	store         cache.SessionStore
	generator     *ai.Generator
	results       repository.ResultRepo
	broadcaster   Broadcaster
	questionCount int
	ttl           time.Duration

	locks [sessionLockStripes]sync.Mutex
}

// sessionLockStripes bounds lock memory regardless of how many session
// ids the process ever sees. Distinct ids may share a stripe; that only
// serializes them, never interleaves them.
const sessionLockStripes = 64

// NewQuizService creates the state machine over a session store and a
// generation backend.
func NewQuizService(store cache.SessionStore, generator *ai.Generator, questionCount int, ttl time.Duration) *QuizService {
	return &QuizService{
		store:         store,
		generator:     generator,
		questionCount: questionCount,
		ttl:           ttl,
	}
}

// SetResultRepo enables archiving of completed quizzes.
func (s *QuizService) SetResultRepo(repo repository.ResultRepo) {
	s.results = repo
}

// SetBroadcaster sets the broadcaster for admin feed events.
func (s *QuizService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// sessionLock returns the stripe serializing mutations for a session id.
func (s *QuizService) sessionLock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockStripes]
}

// HasSession reports whether a live session exists for the id.
func (s *QuizService) HasSession(ctx context.Context, id string) (bool, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// Session returns the live session for the id, or nil when none exists.
// Adapters use it to pick user-facing language and to tell a final
// answer apart from an intermediate one before dispatching the event.
func (s *QuizService) Session(ctx context.Context, id string) (*model.QuizSession, error) {
	return s.store.Get(ctx, id)
}

// StartQuiz handles StartRequested. Starting while a session exists is an
// idempotent no-op; generation failure leaves no session behind.
func (s *QuizService) StartQuiz(ctx context.Context, ev model.StartRequested) model.Action {
	existing, err := s.store.Get(ctx, ev.SessionID)
	if err != nil {
		log.Printf("quiz: session lookup for %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: ev.Language}
	}
	if existing != nil {
		return model.AlreadyInProgress{Language: existing.Language}
	}

	questions, err := s.generator.GenerateQuestions(ctx, s.questionCount, ev.Language)
	if err != nil {
		log.Printf("quiz: question generation for %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: ev.Language}
	}

	lock := s.sessionLock(ev.SessionID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a duplicate start, or a start racing a
	// reset, may have changed the store while generation was in flight.
	existing, err = s.store.Get(ctx, ev.SessionID)
	if err != nil {
		log.Printf("quiz: session lookup for %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: ev.Language}
	}
	if existing != nil {
		return model.AlreadyInProgress{Language: existing.Language}
	}

	session := &model.QuizSession{
		ID:        ev.SessionID,
		Platform:  ev.Platform,
		Language:  ev.Language,
		Questions: questions,
		Answers:   make([]int, 0, len(questions)),
		Context:   ev.Context,
		CreatedAt: time.Now(),
	}
	if err := s.store.Set(ctx, session, s.ttl); err != nil {
		log.Printf("quiz: storing session %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: ev.Language}
	}

	s.broadcast("session_started", map[string]interface{}{
		"sessionId": session.ID,
		"platform":  session.Platform,
		"language":  session.Language,
	})
	return model.QuizStarted{Session: session}
}

// SubmitAnswer handles AnswerSubmitted. Stale or duplicate deliveries
// (index mismatch, out-of-range value) are ignored without mutation. The
// final answer completes the quiz: the session is deleted first, then
// scored and analyzed. A failed analysis loses the attempt rather than
// risking a duplicate backend charge.
func (s *QuizService) SubmitAnswer(ctx context.Context, ev model.AnswerSubmitted) model.Action {
	lock := s.sessionLock(ev.SessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Get(ctx, ev.SessionID)
	if err != nil {
		log.Printf("quiz: session lookup for %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: model.LangEnglish}
	}
	if session == nil {
		return model.SessionExpired{Language: model.LangEnglish}
	}

	if !model.ValidAnswer(ev.Value) || ev.QuestionIndex != session.CurrentIndex {
		return model.Ignored{}
	}

	session.Answers = append(session.Answers, ev.Value)
	session.CurrentIndex++

	if !session.Complete() {
		if err := s.store.Set(ctx, session, s.ttl); err != nil {
			log.Printf("quiz: storing session %s failed: %v", ev.SessionID, err)
			return model.ErrorOccurred{Language: session.Language}
		}
		return model.NextQuestion{Session: session}
	}

	if err := s.store.Delete(ctx, session.ID); err != nil {
		log.Printf("quiz: deleting session %s failed: %v", session.ID, err)
	}

	scores := ComputeScores(session.Questions, session.Answers)
	analysis, err := s.generator.Analyze(ctx, scores, session.Language)
	if err != nil {
		log.Printf("quiz: analysis for %s failed: %v", session.ID, err)
		return model.ErrorOccurred{Language: session.Language}
	}

	s.archive(session, scores, analysis)
	metrics.SessionsCompleted.WithLabelValues(string(session.Platform)).Inc()
	s.broadcast("quiz_completed", map[string]interface{}{
		"sessionId": session.ID,
		"platform":  session.Platform,
		"scores":    scores,
	})
	return model.ResultsReady{Language: session.Language, Scores: scores, Analysis: analysis}
}

// Reset handles ResetRequested: unconditionally clears any stored
// session. It cannot abort an already-dispatched generation; the start
// path's re-check discards that call's result as stale.
func (s *QuizService) Reset(ctx context.Context, ev model.ResetRequested) model.Action {
	lock := s.sessionLock(ev.SessionID)
	lock.Lock()
	defer lock.Unlock()

	lang := ev.Language
	if session, err := s.store.Get(ctx, ev.SessionID); err == nil && session != nil {
		lang = session.Language
	}
	if err := s.store.Delete(ctx, ev.SessionID); err != nil {
		log.Printf("quiz: deleting session %s failed: %v", ev.SessionID, err)
		return model.ErrorOccurred{Language: lang}
	}

	s.broadcast("session_reset", map[string]interface{}{"sessionId": ev.SessionID})
	return model.ResetDone{Language: lang}
}

// archive stores the completed result, best effort.
func (s *QuizService) archive(session *model.QuizSession, scores model.Scores, analysis model.Analysis) {
	if s.results == nil {
		return
	}
	result := &model.Result{
		SessionID:     session.ID,
		Platform:      session.Platform,
		Language:      session.Language,
		Scores:        scores,
		Analysis:      analysis,
		QuestionCount: len(session.Questions),
		CompletedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.results.Create(ctx, result); err != nil {
			log.Printf("quiz: archiving result for %s failed: %v", session.ID, err)
		}
	}()
}

func (s *QuizService) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins(msgType, payload)
	}
}
