package ai

import (
	"encoding/json"
	"strings"

	"compassbot/internal/model"
)

// stripCodeFences removes a surrounding markdown code block if the model
// ignored the "no fences" instruction.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseQuestions normalizes the per-provider response envelopes into one
// validated question slice. Accepted shapes: a bare JSON array, or an
// object wrapping the array under "questions".
func parseQuestions(raw string) ([]model.Question, error) {
	raw = stripCodeFences(raw)

	var questions []model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		var wrapped struct {
			Questions []model.Question `json:"questions"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, genErr("unparsable question payload: %w", err)
		}
		questions = wrapped.Questions
	}

	if len(questions) == 0 {
		return nil, genErr("backend returned no questions")
	}
	for i := range questions {
		if !questions[i].Valid() {
			return nil, genErr("question %d failed schema validation: %+v", i, questions[i])
		}
	}
	return questions, nil
}

// parseAnalysis validates the analysis object; all three fields are
// required so the core never sees partially-parsed data.
func parseAnalysis(raw string) (model.Analysis, error) {
	raw = stripCodeFences(raw)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return model.Analysis{}, genErr("unparsable analysis payload: %w", err)
	}
	if analysis.QuadrantName == "" || analysis.QuadrantDescription == "" || analysis.BehavioralAnalysis == "" {
		return model.Analysis{}, genErr("analysis missing required fields")
	}
	return analysis, nil
}
