package handler

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
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

const testAppID = "app123"

// fakeDiscordAPI captures webhook PATCHes against the original message.
type fakeDiscordAPI struct {
	mu      sync.Mutex
	patches []service.MessageEdit
	notify  chan struct{}
}

func newFakeDiscordAPI() *fakeDiscordAPI {
	return &fakeDiscordAPI{notify: make(chan struct{}, 16)}
}

func (f *fakeDiscordAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/messages/@original") {
			var edit service.MessageEdit
			require.NoError(t, json.NewDecoder(r.Body).Decode(&edit))
			f.mu.Lock()
			f.patches = append(f.patches, edit)
			f.mu.Unlock()
			f.notify <- struct{}{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
}

func (f *fakeDiscordAPI) waitForPatch(t *testing.T) service.MessageEdit {
	t.Helper()
	select {
	case <-f.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for original message edit")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patches[len(f.patches)-1]
}

type discordFixture struct {
	handler *DiscordHandler
	quizSvc *service.QuizService
	api     *fakeDiscordAPI
	privKey ed25519.PrivateKey
}

func newDiscordFixture(t *testing.T, provider *stubProvider) *discordFixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	api := newFakeDiscordAPI()
	ts := api.server(t)
	t.Cleanup(ts.Close)

	gen := ai.NewGeneratorWithProvider(provider, 5*time.Second)
	quizSvc := service.NewQuizService(cache.NewMemoryStore(), gen, len(provider.questions), time.Hour)
	client := service.NewDiscordClient(ts.URL, "bot-token", testAppID)

	h, err := NewDiscordHandler(quizSvc, client, hex.EncodeToString(pub), testAppID)
	require.NoError(t, err)

	return &discordFixture{handler: h, quizSvc: quizSvc, api: api, privKey: priv}
}

// signedRequest builds an interaction request with a valid signature.
func (f *discordFixture) signedRequest(t *testing.T, interaction interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(interaction)
	require.NoError(t, err)

	timestamp := "1693526400"
	msg := append([]byte(timestamp), body...)
	sig := ed25519.Sign(f.privKey, msg)

	req := httptest.NewRequest(http.MethodPost, "/discord", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	return req
}

func commandInteraction(userID, lang string) map[string]interface{} {
	data := map[string]interface{}{"name": "quiz"}
	if lang != "" {
		data["options"] = []map[string]interface{}{{"name": "language", "value": lang}}
	}
	return map[string]interface{}{
		"type":   interactionCommand,
		"token":  "interaction-token",
		"member": map[string]interface{}{"user": map[string]interface{}{"id": userID}},
		"data":   data,
	}
}

func componentInteraction(userID, customID string) map[string]interface{} {
	return map[string]interface{}{
		"type":   interactionMessageComponent,
		"token":  "component-token",
		"member": map[string]interface{}{"user": map[string]interface{}{"id": userID}},
		"data":   map[string]interface{}{"custom_id": customID},
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) interactionResponse {
	t.Helper()
	var resp interactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewDiscordHandlerRejectsBadKey(t *testing.T) {
	_, err := NewDiscordHandler(nil, nil, "not-hex", testAppID)
	assert.Error(t, err)

	_, err = NewDiscordHandler(nil, nil, "abcd", testAppID)
	assert.Error(t, err, "a short key must be rejected")
}

func TestDiscordWebhookRejectsInvalidSignature(t *testing.T) {
	provider := &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
	}}
	f := newDiscordFixture(t, provider)

	// Signed by the wrong key.
	_, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	forged := discordFixture{privKey: otherPriv}
	req := forged.signedRequest(t, commandInteraction("u1", ""))

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, provider.generateCalls(), "unverified requests must not reach the core")
}

func TestDiscordWebhookRejectsMissingSignature(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{})
	req := httptest.NewRequest(http.MethodPost, "/discord", strings.NewReader(`{"type":1}`))
	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDiscordPing(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{})
	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, map[string]interface{}{"type": interactionPing}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responsePong, decodeResponse(t, rec).Type)
}

func TestDiscordCommandDefersAndEditsInQuestion(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "markets should be free", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "tradition binds", Axis: model.AxisSocial, Effect: 1},
	}})

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, commandInteraction("u1", "en")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, responseDeferredChannel, decodeResponse(t, rec).Type)

	edit := f.api.waitForPatch(t)
	require.Len(t, edit.Embeds, 1)
	assert.Equal(t, "Question 1 of 2", edit.Embeds[0].Title)
	assert.Equal(t, "markets should be free", edit.Embeds[0].Description)
	assert.Equal(t, colorQuestion, edit.Embeds[0].Color)
	require.Len(t, edit.Components, 3)
	assert.Equal(t, "ans:0:2", edit.Components[0].Components[0].CustomID)

	has, err := f.quizSvc.HasSession(context.Background(), model.SessionID(model.PlatformDiscord, "u1"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDiscordCommandWhileInProgressIsEphemeral(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
	}})

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, commandInteraction("u1", "")))
	require.Equal(t, responseDeferredChannel, decodeResponse(t, rec).Type)
	f.api.waitForPatch(t)

	rec = httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, commandInteraction("u1", "")))

	resp := decodeResponse(t, rec)
	assert.Equal(t, responseChannelMessage, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, flagEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "already have a quiz")
}

func TestDiscordComponentAdvancesQuiz(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{questions: []model.Question{
		{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		{Statement: "q2", Axis: model.AxisSocial, Effect: 1},
	}})

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, commandInteraction("u1", "")))
	f.api.waitForPatch(t)

	rec = httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, componentInteraction("u1", "ans:0:2")))

	assert.Equal(t, responseDeferredUpdateMessage, decodeResponse(t, rec).Type)

	edit := f.api.waitForPatch(t)
	require.Len(t, edit.Embeds, 1)
	assert.Equal(t, "Question 2 of 2", edit.Embeds[0].Title)
}

func TestDiscordFinalAnswerAcksWithAnalyzing(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{
		questions: []model.Question{
			{Statement: "q1", Axis: model.AxisEconomic, Effect: 1},
		},
		analysis: model.Analysis{
			QuadrantName:        "Authoritarian Left",
			QuadrantDescription: "desc",
			BehavioralAnalysis:  "behavior",
		},
	})

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, commandInteraction("u1", "")))
	f.api.waitForPatch(t)

	rec = httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, componentInteraction("u1", "ans:0:2")))

	resp := decodeResponse(t, rec)
	assert.Equal(t, responseUpdateMessage, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data.Content, "Analyzing")

	edit := f.api.waitForPatch(t)
	require.Len(t, edit.Embeds, 1)
	assert.Equal(t, colorResults, edit.Embeds[0].Color)
	assert.Contains(t, edit.Embeds[0].Description, "Authoritarian Left")
	assert.Empty(t, edit.Components, "results must not carry answer buttons")

	has, err := f.quizSvc.HasSession(context.Background(), model.SessionID(model.PlatformDiscord, "u1"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDiscordComponentWithoutSessionExpires(t *testing.T) {
	f := newDiscordFixture(t, &stubProvider{})

	rec := httptest.NewRecorder()
	f.handler.Webhook(rec, f.signedRequest(t, componentInteraction("ghost", "ans:0:1")))

	resp := decodeResponse(t, rec)
	assert.Equal(t, responseUpdateMessage, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data.Content, "no longer available")
}
