package model

// Axis identifies which political dimension a question scores.
type Axis string

const (
	AxisEconomic Axis = "economic"
	AxisSocial   Axis = "social"
)

// Question is one generated quiz statement. Questions are immutable once
// generated and belong to the session that requested them.
type Question struct {
	Statement string `json:"statement" bson:"statement"`
	Axis      Axis   `json:"axis" bson:"axis"`
	Effect    int    `json:"effect" bson:"effect"` // +1 or -1
}

// Valid reports whether the question carries a usable statement, a known
// axis, and a unit effect.
func (q *Question) Valid() bool {
	if q.Statement == "" {
		return false
	}
	if q.Axis != AxisEconomic && q.Axis != AxisSocial {
		return false
	}
	return q.Effect == 1 || q.Effect == -1
}

// Answer bounds: every answer is an agreement level in [-2, 2].
const (
	AnswerMin = -2
	AnswerMax = 2
)

// ValidAnswer reports whether v is an acceptable answer value.
func ValidAnswer(v int) bool {
	return v >= AnswerMin && v <= AnswerMax
}
