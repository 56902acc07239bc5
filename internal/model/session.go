package model

import "time"

// Language selects the localization used for all outbound text of a
// session. Fixed at session creation.
type Language string

const (
	LangEnglish Language = "en"
	LangPersian Language = "fa"
)

// ParseLanguage maps a platform locale hint to a supported language,
// defaulting to English.
func ParseLanguage(s string) Language {
	if s == string(LangPersian) {
		return LangPersian
	}
	return LangEnglish
}

// Platform tags which messaging platform a session belongs to.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
)

// SessionID derives the store key for a platform user. The platform tag
// guarantees ids never collide across platforms.
func SessionID(p Platform, userID string) string {
	return string(p) + ":" + userID
}

// PlatformContext is the continuation data an adapter needs to deliver
// asynchronous follow-ups for a session.
type PlatformContext struct {
	// Telegram: the chat to send messages to.
	ChatID int64 `json:"chatId,omitempty"`

	// Discord: token + application identity for follow-up PATCH calls
	// against the original interaction message.
	InteractionToken string `json:"interactionToken,omitempty"`
	ApplicationID    string `json:"applicationId,omitempty"`
}

// QuizSession is the server-side record of one user's in-progress
// questionnaire. Transitions never mutate a stored session in place; the
// state machine writes back a new value through the session store.
type QuizSession struct {
	ID           string          `json:"id"`
	Platform     Platform        `json:"platform"`
	Language     Language        `json:"language"`
	Questions    []Question      `json:"questions"`
	Answers      []int           `json:"answers"` // answer i belongs to question i
	CurrentIndex int             `json:"currentIndex"`
	Context      PlatformContext `json:"context"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Complete reports whether every question has been answered.
func (s *QuizSession) Complete() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// CurrentQuestion returns the question at the cursor, or nil when the
// session is complete.
func (s *QuizSession) CurrentQuestion() *Question {
	if s.Complete() {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}
