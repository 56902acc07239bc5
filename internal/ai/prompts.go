package ai

import (
	"fmt"

	"compassbot/internal/model"
)

var langNames = map[model.Language]string{
	model.LangEnglish: "English",
	model.LangPersian: "Persian",
}

// promptFormat selects the envelope the backend is asked for: Gemini
// returns a bare JSON array, the chat-completion backends wrap questions
// in an object so JSON mode has a single root.
type promptFormat int

const (
	formatBareArray promptFormat = iota
	formatWrappedObject
)

func questionPrompt(count int, lang model.Language, format promptFormat) string {
	common := fmt.Sprintf(`You are an expert in political science. Generate %d unbiased, simple statements for a political compass test in %s. Cover both Economic (Left/Right) and Social (Authoritarian/Libertarian) axes.
Each object must have the structure: {"statement": "The statement.", "axis": "economic" or "social", "effect": 1 or -1}.
- "axis": "economic" for economy/markets. "social" for personal freedoms/order.
- "effect" (economic): 1 for Right (capitalism), -1 for Left (socialism).
- "effect" (social): 1 for Authoritarianism, -1 for Libertarianism.`, count, langNames[lang])

	if format == formatBareArray {
		return common + `
Return the output as a valid JSON array of objects. Do not include any text, code block markers, or explanations outside the JSON array itself.`
	}
	return common + `
Return the output as a single valid JSON object with a key "questions" whose value is an array of these objects. Do not include any other text or explanations.`
}

func analysisPrompt(scores model.Scores, lang model.Language) string {
	name := langNames[lang]
	return fmt.Sprintf(`You are a political analyst. A user's scores are:
Economic Axis: %.2f (-10 is far-left, +10 is far-right)
Social Axis: %.2f (-10 is libertarian, +10 is authoritarian)
Provide an analysis in %s.
Return a single, valid JSON object with the structure:
{
  "quadrantName": "A short, descriptive name for their quadrant in %s.",
  "quadrantDescription": "A paragraph in %s explaining this quadrant's core values.",
  "behavioralAnalysis": "A paragraph in %s describing likely behavioral patterns and perspectives for someone in this quadrant."
}
Do not include any text or code block markers outside the JSON object.`,
		scores.Economic, scores.Social, name, name, name, name)
}
