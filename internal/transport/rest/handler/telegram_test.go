package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compassbot/internal/ai"
	"compassbot/internal/cache"
	"compassbot/internal/model"
	"compassbot/internal/service"
)

// stubProvider is a canned generation backend for handler tests.
type stubProvider struct {
	mu        sync.Mutex
	questions []model.Question
	analysis  model.Analysis
	genCalls  int
}

func (p *stubProvider) GenerateQuestions(_ context.Context, _ int, _ model.Language) ([]model.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.genCalls++
	return p.questions, nil
}

func (p *stubProvider) Analyze(_ context.Context, _ model.Scores, _ model.Language) (model.Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analysis, nil
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) generateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.genCalls
}

// botAPICall is one request captured by the fake Bot API.
type botAPICall struct {
	Method string
	Params map[string]interface{}
}

// fakeBotAPI records Telegram Bot API calls and answers ok to all.
type fakeBotAPI struct {
	mu    sync.Mutex
	calls []botAPICall
}

func (f *fakeBotAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var params map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		f.mu.Lock()
		f.calls = append(f.calls, botAPICall{Method: method, Params: params})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
}

func (f *fakeBotAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func (f *fakeBotAPI) last(method string) (map[string]interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i].Params, true
		}
	}
	return nil, false
}

func newTelegramFixture(t *testing.T, provider *stubProvider) (*TelegramHandler, *service.QuizService, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	ts := api.server(t)
	t.Cleanup(ts.Close)

	gen := ai.NewGeneratorWithProvider(provider, 5*time.Second)
	quizSvc := service.NewQuizService(cache.NewMemoryStore(), gen, len(provider.questions), time.Hour)
	client := service.NewTelegramClient(ts.URL, "test-token")
	return NewTelegramHandler(quizSvc, client), quizSvc, api
}

func postUpdate(t *testing.T, h *TelegramHandler, update interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/telegram", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func messageUpdate(chatID int64, text string) map[string]interface{} {
	return map[string]interface{}{
		"message": map[string]interface{}{
			"message_id": 1,
			"chat":       map[string]interface{}{"id": chatID},
			"text":       text,
		},
	}
}

func callbackUpdate(chatID int64, messageID int, data string) map[string]interface{} {
	return map[string]interface{}{
		"callback_query": map[string]interface{}{
			"id":   "cb1",
			"data": data,
			"message": map[string]interface{}{
				"message_id": messageID,
				"chat":       map[string]interface{}{"id": chatID},
			},
		},
	}
}

func TestTelegramWebhookRejectsBadJSON(t *testing.T) {
	h, _, _ := newTelegramFixture(t, &stubProvider{})
	req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTelegramStartCommand(t *testing.T) {
	h, _, api := newTelegramFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
	}})

	rec := postUpdate(t, h, messageUpdate(42, "/start"))
	assert.Equal(t, http.StatusOK, rec.Code)

	params, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Contains(t, params["text"], "Welcome")
	assert.Contains(t, params, "reply_markup")
}

func TestTelegramQuizCommandSendsFirstQuestion(t *testing.T) {
	h, quizSvc, api := newTelegramFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "markets should be free", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "tradition binds", Axis: model.AxisSocial, Effect: 1},
	}})

	rec := postUpdate(t, h, messageUpdate(42, "/quiz"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A generating notice, then the question with its keyboard.
	methods := api.methods()
	require.GreaterOrEqual(t, len(methods), 2)
	assert.Equal(t, []string{"sendMessage", "sendMessage"}, methods)

	params, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Contains(t, params["text"], "Question 1 of 2")
	assert.Contains(t, params["text"], "markets should be free")

	markup := params["reply_markup"].(map[string]interface{})
	rows := markup["inline_keyboard"].([]interface{})
	require.Len(t, rows, 3)
	firstButton := rows[0].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ans:0:2", firstButton["callback_data"])

	has, err := quizSvc.HasSession(context.Background(), model.SessionID(model.PlatformTelegram, "42"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestTelegramQuizCommandWhileInProgress(t *testing.T) {
	provider := &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "q2", Axis: model.AxisSocial, Effect: 1},
	}}
	h, _, api := newTelegramFixture(t, provider)

	postUpdate(t, h, messageUpdate(42, "/quiz"))
	postUpdate(t, h, messageUpdate(42, "/quiz"))

	assert.Equal(t, 1, provider.generateCalls(), "a second /quiz must not regenerate")
	params, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Contains(t, params["text"], "already have a quiz")
}

func TestTelegramAnswerCallbackAdvances(t *testing.T) {
	h, _, api := newTelegramFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "q2", Axis: model.AxisSocial, Effect: 1},
	}})

	postUpdate(t, h, messageUpdate(42, "/quiz"))
	rec := postUpdate(t, h, callbackUpdate(42, 7, "ans:0:2"))
	assert.Equal(t, http.StatusOK, rec.Code)

	methods := api.methods()
	assert.Contains(t, methods, "answerCallbackQuery")
	assert.Contains(t, methods, "deleteMessage")

	params, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Contains(t, params["text"], "Question 2 of 2")
}

func TestTelegramFinalAnswerSendsResults(t *testing.T) {
	h, quizSvc, api := newTelegramFixture(t, &stubProvider{
		questions: []model.Question{
			{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		},
		analysis: model.Analysis{
			QuadrantName:        "Libertarian Right",
			QuadrantDescription: "desc",
			BehavioralAnalysis:  "behavior",
		},
	})

	postUpdate(t, h, messageUpdate(42, "/quiz"))
	postUpdate(t, h, callbackUpdate(42, 7, "ans:0:2"))

	params, ok := api.last("sendMessage")
	require.True(t, ok)
	text := params["text"].(string)
	assert.Contains(t, text, "Libertarian Right")
	assert.Contains(t, text, fmt.Sprintf("Economic: %s", "10.0"))
	assert.Equal(t, "Markdown", params["parse_mode"])

	has, err := quizSvc.HasSession(context.Background(), model.SessionID(model.PlatformTelegram, "42"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTelegramDuplicateCallbackIgnored(t *testing.T) {
	h, _, api := newTelegramFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "q2", Axis: model.AxisSocial, Effect: 1},
	}})

	postUpdate(t, h, messageUpdate(42, "/quiz"))
	postUpdate(t, h, callbackUpdate(42, 7, "ans:0:2"))
	before := len(api.methods())

	// Same button press delivered again.
	postUpdate(t, h, callbackUpdate(42, 7, "ans:0:2"))

	// Only the ack goes out; no delete, no new question.
	assert.Equal(t, before+1, len(api.methods()))
}

func TestTelegramResetCommand(t *testing.T) {
	h, quizSvc, api := newTelegramFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
	}})

	postUpdate(t, h, messageUpdate(42, "/quiz"))
	postUpdate(t, h, messageUpdate(42, "/reset"))

	params, ok := api.last("sendMessage")
	require.True(t, ok)
	assert.Contains(t, params["text"], "reset")

	has, err := quizSvc.HasSession(context.Background(), model.SessionID(model.PlatformTelegram, "42"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestParseAnswerData(t *testing.T) {
	index, value, ok := parseAnswerData("ans:3:-2")
	require.True(t, ok)
	assert.Equal(t, 3, index)
	assert.Equal(t, -2, value)

	_, _, ok = parseAnswerData("ans:3")
	assert.False(t, ok)
	_, _, ok = parseAnswerData("ans:-1:2")
	assert.False(t, ok)
	_, _, ok = parseAnswerData("ans:x:2")
	assert.False(t, ok)
	_, _, ok = parseAnswerData("start_en")
	assert.False(t, ok)
}
