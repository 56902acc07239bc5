package model

import "time"

// Scores are the normalized axis scores, each in [-10, 10].
type Scores struct {
	Economic float64 `json:"economic" bson:"economic"`
	Social   float64 `json:"social" bson:"social"`
}

// Analysis is the AI-written interpretation of a finished quiz. The core
// treats it as opaque text.
type Analysis struct {
	QuadrantName        string `json:"quadrantName" bson:"quadrantName"`
	QuadrantDescription string `json:"quadrantDescription" bson:"quadrantDescription"`
	BehavioralAnalysis  string `json:"behavioralAnalysis" bson:"behavioralAnalysis"`
}

// Result is the archived record of a completed quiz.
type Result struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	Platform      Platform  `json:"platform" bson:"platform"`
	Language      Language  `json:"language" bson:"language"`
	Scores        Scores    `json:"scores" bson:"scores"`
	Analysis      Analysis  `json:"analysis" bson:"analysis"`
	QuestionCount int       `json:"questionCount" bson:"questionCount"`
	CompletedAt   time.Time `json:"completedAt" bson:"completedAt"`
}
