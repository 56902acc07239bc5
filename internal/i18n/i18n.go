// Package i18n holds the fixed bot-facing strings. All user-visible text
// goes through here; internal errors never reach the user directly.
package i18n

import (
	"strings"

	"compassbot/internal/model"
)

var translations = map[model.Language]map[string]string{
	model.LangEnglish: {
		"welcome":         "Welcome to the Political Compass Test! Send /quiz or press the button below to start.",
		"startButton":     "Start Quiz / شروع آزمون",
		"inProgress":      "You already have a quiz in progress. Send /reset to start over.",
		"generating":      "⏳ Generating questions for you...",
		"question":        "Question {current} of {total}:\n\n{statement}",
		"questionTitle":   "Question {current} of {total}",
		"stronglyAgree":   "Strongly Agree",
		"agree":           "Agree",
		"neutral":         "Neutral",
		"disagree":        "Disagree",
		"stronglyDis":     "Strongly Disagree",
		"analyzing":       "⏳ Analyzing your results...",
		"resultsTitle":    "📊 Your Test Results",
		"quadrant":        "Political Quadrant: {quadrantName}",
		"scores":          "Scores:\nEconomic: {economic}\nSocial: {social}",
		"descriptionHead": "Description",
		"behavioralHead":  "Behavioral Analysis",
		"reset":           "Your test has been reset. Send /quiz to start a new one.",
		"expired":         "This quiz is no longer available. Send /quiz to start a new one.",
		"error":           "An error occurred. Please try again.",
		"quizCmdDesc":     "Start a new political compass test.",
		"langOptionDesc":  "The language to use for the test.",
	},
	model.LangPersian: {
		"welcome":         "به آزمون گرایش سیاسی خوش آمدید! برای شروع /quiz را ارسال کنید یا دکمه زیر را بزنید.",
		"startButton":     "Start Quiz / شروع آزمون",
		"inProgress":      "شما در حال حاضر یک آزمون در حال انجام دارید. برای شروع مجدد /reset را ارسال کنید.",
		"generating":      "⏳ در حال تولید سوالات برای شما...",
		"question":        "سوال {current} از {total}:\n\n{statement}",
		"questionTitle":   "سوال {current} از {total}",
		"stronglyAgree":   "کاملاً موافقم",
		"agree":           "موافقم",
		"neutral":         "بی‌تفاوت",
		"disagree":        "مخالفم",
		"stronglyDis":     "کاملاً مخالفم",
		"analyzing":       "⏳ در حال تحلیل نتایج شما...",
		"resultsTitle":    "📊 نتایج آزمون شما",
		"quadrant":        "گرایش سیاسی: {quadrantName}",
		"scores":          "امتیازها:\nاقتصادی: {economic}\nاجتماعی: {social}",
		"descriptionHead": "توضیحات",
		"behavioralHead":  "تحلیل رفتاری",
		"reset":           "آزمون شما بازنشانی شد. برای شروع مجدد /quiz را ارسال کنید.",
		"expired":         "این آزمون دیگر در دسترس نیست. برای شروع مجدد /quiz را ارسال کنید.",
		"error":           "خطایی رخ داد. لطفاً دوباره تلاش کنید.",
		"quizCmdDesc":     "یک آزمون گرایش سیاسی جدید را شروع کنید.",
		"langOptionDesc":  "زبانی که برای آزمون استفاده می‌شود.",
	},
}

// T returns the translated string for key in lang; falls back to English.
func T(lang model.Language, key string) string {
	if m, ok := translations[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations[model.LangEnglish][key]; ok {
		return v
	}
	return key
}

// Tf translates key and substitutes {name} placeholders from pairs of
// name, value arguments.
func Tf(lang model.Language, key string, pairs ...string) string {
	s := T(lang, key)
	for i := 0; i+1 < len(pairs); i += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[i]+"}", pairs[i+1])
	}
	return s
}
