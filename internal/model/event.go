package model

// Events are the platform-independent inputs to the session state
// machine. Adapters translate webhook payloads into these and render the
// resulting Action back into platform calls.

// StartRequested asks for a new quiz session.
type StartRequested struct {
	SessionID string
	Platform  Platform
	Language  Language
	Context   PlatformContext
}

// AnswerSubmitted records an answer for one question. QuestionIndex is
// the cursor position the answer targets, carried in the button payload
// so duplicate or late deliveries can be detected against the stored
// cursor.
type AnswerSubmitted struct {
	SessionID     string
	QuestionIndex int
	Value         int
}

// ResetRequested clears any stored session for the user.
type ResetRequested struct {
	SessionID string
	Language  Language
}

// Action is the closed set of outcomes the state machine can produce.
// Adapters type-switch over it.
type Action interface {
	isAction()
}

// QuizStarted carries the freshly created session; the adapter presents
// its first question.
type QuizStarted struct {
	Session *QuizSession
}

// NextQuestion carries the advanced session; the adapter presents the
// question at the new cursor.
type NextQuestion struct {
	Session *QuizSession
}

// ResultsReady carries the final scores and analysis. The session has
// already been deleted by the time an adapter sees this.
type ResultsReady struct {
	Language Language
	Scores   Scores
	Analysis Analysis
}

// AlreadyInProgress signals a start while a session exists. The stored
// session is untouched.
type AlreadyInProgress struct {
	Language Language
}

// SessionExpired signals an answer for an id with no stored session.
type SessionExpired struct {
	Language Language
}

// ResetDone confirms a reset.
type ResetDone struct {
	Language Language
}

// ErrorOccurred signals a generation failure; the user is told to retry.
type ErrorOccurred struct {
	Language Language
}

// Ignored signals a duplicate or stale delivery; adapters acknowledge it
// without any user-visible output.
type Ignored struct{}

func (QuizStarted) isAction()       {}
func (NextQuestion) isAction()      {}
func (ResultsReady) isAction()      {}
func (AlreadyInProgress) isAction() {}
func (SessionExpired) isAction()    {}
func (ResetDone) isAction()         {}
func (ErrorOccurred) isAction()     {}
func (Ignored) isAction()           {}
