package handler

import (
	"compassbot/internal/i18n"
	"compassbot/internal/metrics"
	"compassbot/internal/model"
	"compassbot/internal/service"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// telegramUpdate mirrors the slice of the Telegram webhook envelope the
// bot consumes: plain text commands and inline keyboard callbacks.
type telegramUpdate struct {
	Message *struct {
		MessageID int `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Message struct {
			MessageID int `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// TelegramHandler adapts Telegram webhook updates to quiz events and
// renders the resulting actions back through the bot API. Telegram
// retries undelivered webhooks, so the handler always answers 200 once
// the payload parses; user-visible failures become localized messages.
type TelegramHandler struct {
	quizSvc *service.QuizService
	client  *service.TelegramClient
}

// NewTelegramHandler creates a new Telegram webhook handler
func NewTelegramHandler(quizSvc *service.QuizService, client *service.TelegramClient) *TelegramHandler {
	return &TelegramHandler{quizSvc: quizSvc, client: client}
}

// Webhook handles POST /telegram
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	ctx := r.Context()
	switch {
	case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
		metrics.WebhookEvents.WithLabelValues("telegram", "command").Inc()
		h.handleCommand(ctx, update.Message.Chat.ID, update.Message.Text)
	case update.CallbackQuery != nil:
		metrics.WebhookEvents.WithLabelValues("telegram", "callback").Inc()
		h.handleCallback(ctx, update.CallbackQuery.ID, update.CallbackQuery.Message.Chat.ID,
			update.CallbackQuery.Message.MessageID, update.CallbackQuery.Data)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *TelegramHandler) handleCommand(ctx context.Context, chatID int64, text string) {
	fields := strings.Fields(text)
	// Group chats address commands as /quiz@BotName.
	cmd, _, _ := strings.Cut(fields[0], "@")
	lang := model.LangEnglish
	if len(fields) > 1 {
		lang = model.ParseLanguage(fields[1])
	}
	sid := model.SessionID(model.PlatformTelegram, strconv.FormatInt(chatID, 10))

	switch cmd {
	case "/start":
		has, err := h.quizSvc.HasSession(ctx, sid)
		if err != nil {
			h.sendText(ctx, chatID, i18n.T(lang, "error"))
			return
		}
		if has {
			h.sendText(ctx, chatID, i18n.T(h.sessionLang(ctx, sid, lang), "inProgress"))
			return
		}
		markup := &service.InlineKeyboardMarkup{
			InlineKeyboard: [][]service.InlineKeyboardButton{
				{{Text: i18n.T(lang, "startButton"), CallbackData: "start_" + string(lang)}},
			},
		}
		if err := h.client.SendMessage(ctx, chatID, i18n.T(lang, "welcome"), markup, false); err != nil {
			log.Printf("telegram: welcome to chat %d failed: %v", chatID, err)
		}

	case "/quiz":
		h.startQuiz(ctx, chatID, sid, lang)

	case "/reset":
		action := h.quizSvc.Reset(ctx, model.ResetRequested{SessionID: sid, Language: lang})
		h.render(ctx, chatID, action)
	}
}

func (h *TelegramHandler) handleCallback(ctx context.Context, callbackID string, chatID int64, messageID int, data string) {
	if err := h.client.AnswerCallbackQuery(ctx, callbackID); err != nil {
		log.Printf("telegram: callback ack failed: %v", err)
	}
	sid := model.SessionID(model.PlatformTelegram, strconv.FormatInt(chatID, 10))

	switch {
	case strings.HasPrefix(data, "start_"):
		lang := model.ParseLanguage(strings.TrimPrefix(data, "start_"))
		if err := h.client.EditMessageText(ctx, chatID, messageID, i18n.T(lang, "generating")); err != nil {
			log.Printf("telegram: edit to generating failed: %v", err)
		}
		action := h.quizSvc.StartQuiz(ctx, model.StartRequested{
			SessionID: sid,
			Platform:  model.PlatformTelegram,
			Language:  lang,
			Context:   model.PlatformContext{ChatID: chatID},
		})
		h.render(ctx, chatID, action)

	case strings.HasPrefix(data, "ans:"):
		index, value, ok := parseAnswerData(data)
		if !ok {
			return
		}
		// The final answer triggers an inline analysis call; tell the
		// user before it starts so the gap is not silent.
		if session, err := h.quizSvc.Session(ctx, sid); err == nil && session != nil &&
			index == len(session.Questions)-1 && index == session.CurrentIndex {
			h.sendText(ctx, chatID, i18n.T(session.Language, "analyzing"))
		}
		action := h.quizSvc.SubmitAnswer(ctx, model.AnswerSubmitted{
			SessionID:     sid,
			QuestionIndex: index,
			Value:         value,
		})
		if _, ignored := action.(model.Ignored); ignored {
			return
		}
		if err := h.client.DeleteMessage(ctx, chatID, messageID); err != nil {
			log.Printf("telegram: deleting question message failed: %v", err)
		}
		h.render(ctx, chatID, action)
	}
}

func (h *TelegramHandler) startQuiz(ctx context.Context, chatID int64, sid string, lang model.Language) {
	has, err := h.quizSvc.HasSession(ctx, sid)
	if err != nil {
		h.sendText(ctx, chatID, i18n.T(lang, "error"))
		return
	}
	if has {
		h.sendText(ctx, chatID, i18n.T(h.sessionLang(ctx, sid, lang), "inProgress"))
		return
	}
	h.sendText(ctx, chatID, i18n.T(lang, "generating"))
	action := h.quizSvc.StartQuiz(ctx, model.StartRequested{
		SessionID: sid,
		Platform:  model.PlatformTelegram,
		Language:  lang,
		Context:   model.PlatformContext{ChatID: chatID},
	})
	h.render(ctx, chatID, action)
}

// render turns a state machine action into bot API calls.
func (h *TelegramHandler) render(ctx context.Context, chatID int64, action model.Action) {
	switch a := action.(type) {
	case model.QuizStarted:
		h.sendQuestion(ctx, chatID, a.Session)
	case model.NextQuestion:
		h.sendQuestion(ctx, chatID, a.Session)
	case model.ResultsReady:
		text := formatResults(a.Language, a.Scores, a.Analysis)
		if err := h.client.SendMessage(ctx, chatID, text, nil, true); err != nil {
			log.Printf("telegram: sending results to chat %d failed: %v", chatID, err)
		}
	case model.AlreadyInProgress:
		h.sendText(ctx, chatID, i18n.T(a.Language, "inProgress"))
	case model.SessionExpired:
		h.sendText(ctx, chatID, i18n.T(a.Language, "expired"))
	case model.ResetDone:
		h.sendText(ctx, chatID, i18n.T(a.Language, "reset"))
	case model.ErrorOccurred:
		h.sendText(ctx, chatID, i18n.T(a.Language, "error"))
	case model.Ignored:
	}
}

func (h *TelegramHandler) sendQuestion(ctx context.Context, chatID int64, session *model.QuizSession) {
	q := session.CurrentQuestion()
	if q == nil {
		return
	}
	lang := session.Language
	text := i18n.Tf(lang, "question",
		"current", strconv.Itoa(session.CurrentIndex+1),
		"total", strconv.Itoa(len(session.Questions)),
		"statement", q.Statement,
	)
	markup := &service.InlineKeyboardMarkup{
		InlineKeyboard: [][]service.InlineKeyboardButton{
			{
				{Text: i18n.T(lang, "stronglyAgree"), CallbackData: answerData(session.CurrentIndex, 2)},
				{Text: i18n.T(lang, "agree"), CallbackData: answerData(session.CurrentIndex, 1)},
			},
			{
				{Text: i18n.T(lang, "neutral"), CallbackData: answerData(session.CurrentIndex, 0)},
			},
			{
				{Text: i18n.T(lang, "disagree"), CallbackData: answerData(session.CurrentIndex, -1)},
				{Text: i18n.T(lang, "stronglyDis"), CallbackData: answerData(session.CurrentIndex, -2)},
			},
		},
	}
	if err := h.client.SendMessage(ctx, chatID, text, markup, false); err != nil {
		log.Printf("telegram: sending question to chat %d failed: %v", chatID, err)
	}
}

func (h *TelegramHandler) sendText(ctx context.Context, chatID int64, text string) {
	if err := h.client.SendMessage(ctx, chatID, text, nil, false); err != nil {
		log.Printf("telegram: sending message to chat %d failed: %v", chatID, err)
	}
}

// sessionLang prefers the live session's language over the command's.
func (h *TelegramHandler) sessionLang(ctx context.Context, sid string, fallback model.Language) model.Language {
	if session, err := h.quizSvc.Session(ctx, sid); err == nil && session != nil {
		return session.Language
	}
	return fallback
}

func formatResults(lang model.Language, scores model.Scores, analysis model.Analysis) string {
	var b strings.Builder
	b.WriteString("*" + i18n.T(lang, "resultsTitle") + "*\n\n")
	b.WriteString("*" + i18n.Tf(lang, "quadrant", "quadrantName", analysis.QuadrantName) + "*\n\n")
	b.WriteString(i18n.Tf(lang, "scores",
		"economic", formatScore(scores.Economic),
		"social", formatScore(scores.Social),
	))
	b.WriteString("\n\n*" + i18n.T(lang, "descriptionHead") + "*\n" + analysis.QuadrantDescription)
	b.WriteString("\n\n*" + i18n.T(lang, "behavioralHead") + "*\n" + analysis.BehavioralAnalysis)
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// answerData encodes a button payload carrying the question index it
// answers, so redelivered or stale presses can be told apart.
func answerData(index, value int) string {
	return fmt.Sprintf("ans:%d:%d", index, value)
}

func parseAnswerData(data string) (index, value int, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return 0, 0, false
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return 0, 0, false
	}
	value, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return index, value, true
}
