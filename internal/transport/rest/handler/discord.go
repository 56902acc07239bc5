package handler

import (
	"compassbot/internal/i18n"
	"compassbot/internal/metrics"
	"compassbot/internal/model"
	"compassbot/internal/service"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Discord interaction and response type constants, per the interactions
// wire contract.
const (
	interactionPing             = 1
	interactionCommand          = 2
	interactionMessageComponent = 3

	responsePong                  = 1
	responseChannelMessage        = 4
	responseDeferredChannel       = 5
	responseDeferredUpdateMessage = 6
	responseUpdateMessage         = 7

	flagEphemeral = 64

	buttonStyleSecondary = 2
	buttonStyleSuccess   = 3
	buttonStyleDanger    = 4

	colorQuestion = 0x5865F2
	colorResults  = 0x2ECC71
)

// discordInteraction mirrors the slice of the interaction payload the
// bot consumes.
type discordInteraction struct {
	Type   int    `json:"type"`
	Token  string `json:"token"`
	Member *struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"member"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
	Data struct {
		Name     string `json:"name"`
		CustomID string `json:"custom_id"`
		Options  []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
	} `json:"data"`
}

type interactionResponse struct {
	Type int                      `json:"type"`
	Data *interactionResponseData `json:"data,omitempty"`
}

type interactionResponseData struct {
	Content    string              `json:"content,omitempty"`
	Flags      int                 `json:"flags,omitempty"`
	Embeds     []service.Embed     `json:"embeds"`
	Components []service.ActionRow `json:"components"`
}

// DiscordHandler adapts Discord interactions to quiz events. Discord
// demands an acknowledgement within three seconds, so anything that may
// block (generation, analysis) is acknowledged with a deferred response
// and finished in the background through a webhook PATCH against the
// original message.
type DiscordHandler struct {
	quizSvc       *service.QuizService
	client        *service.DiscordClient
	publicKey     ed25519.PublicKey
	applicationID string
}

// NewDiscordHandler creates a new interactions handler. publicKeyHex is
// the application's hex-encoded ed25519 verification key.
func NewDiscordHandler(quizSvc *service.QuizService, client *service.DiscordClient, publicKeyHex, applicationID string) (*DiscordHandler, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord: invalid public key")
	}
	return &DiscordHandler{
		quizSvc:       quizSvc,
		client:        client,
		publicKey:     ed25519.PublicKey(key),
		applicationID: applicationID,
	}, nil
}

// Webhook handles POST /discord
func (h *DiscordHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !h.verifySignature(r, body) {
		metrics.WebhookEvents.WithLabelValues("discord", "rejected").Inc()
		writeError(w, http.StatusUnauthorized, "invalid request signature")
		return
	}

	var interaction discordInteraction
	if err := json.Unmarshal(body, &interaction); err != nil {
		writeError(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}

	switch interaction.Type {
	case interactionPing:
		metrics.WebhookEvents.WithLabelValues("discord", "ping").Inc()
		writeJSON(w, http.StatusOK, interactionResponse{Type: responsePong})
	case interactionCommand:
		metrics.WebhookEvents.WithLabelValues("discord", "command").Inc()
		h.handleCommand(r.Context(), w, &interaction)
	case interactionMessageComponent:
		metrics.WebhookEvents.WithLabelValues("discord", "component").Inc()
		h.handleComponent(r.Context(), w, &interaction)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// verifySignature checks the ed25519 signature over timestamp+body.
func (h *DiscordHandler) verifySignature(r *http.Request, body []byte) bool {
	sig, err := hex.DecodeString(r.Header.Get("X-Signature-Ed25519"))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	timestamp := r.Header.Get("X-Signature-Timestamp")
	if timestamp == "" {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(h.publicKey, msg, sig)
}

func (h *DiscordHandler) handleCommand(ctx context.Context, w http.ResponseWriter, interaction *discordInteraction) {
	if interaction.Data.Name != "quiz" {
		w.WriteHeader(http.StatusOK)
		return
	}
	userID := interactionUserID(interaction)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	lang := model.LangEnglish
	for _, opt := range interaction.Data.Options {
		if opt.Name == "language" {
			lang = model.ParseLanguage(opt.Value)
		}
	}
	sid := model.SessionID(model.PlatformDiscord, userID)

	if session, err := h.quizSvc.Session(ctx, sid); err == nil && session != nil {
		// Ephemeral notice; the in-flight quiz keeps its own message.
		writeJSON(w, http.StatusOK, interactionResponse{
			Type: responseChannelMessage,
			Data: &interactionResponseData{
				Content: i18n.T(session.Language, "inProgress"),
				Flags:   flagEphemeral,
			},
		})
		return
	}

	// Acknowledge now; generation will not fit in the three-second
	// window. The visible "thinking" state is replaced by the first
	// question, or an error, via the interaction token.
	writeJSON(w, http.StatusOK, interactionResponse{Type: responseDeferredChannel})

	token := interaction.Token
	go h.background(func(ctx context.Context) {
		action := h.quizSvc.StartQuiz(ctx, model.StartRequested{
			SessionID: sid,
			Platform:  model.PlatformDiscord,
			Language:  lang,
			Context: model.PlatformContext{
				InteractionToken: token,
				ApplicationID:    h.applicationID,
			},
		})
		h.patchAction(ctx, token, lang, action)
	})
}

func (h *DiscordHandler) handleComponent(ctx context.Context, w http.ResponseWriter, interaction *discordInteraction) {
	userID := interactionUserID(interaction)
	index, value, ok := parseAnswerData(interaction.Data.CustomID)
	if userID == "" || !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	sid := model.SessionID(model.PlatformDiscord, userID)

	session, err := h.quizSvc.Session(ctx, sid)
	if err != nil {
		log.Printf("discord: session lookup for %s failed: %v", sid, err)
		writeJSON(w, http.StatusOK, updateMessage(i18n.T(model.LangEnglish, "error")))
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, updateMessage(i18n.T(model.LangEnglish, "expired")))
		return
	}

	token := session.Context.InteractionToken
	lang := session.Language
	final := index == len(session.Questions)-1 && index == session.CurrentIndex

	if final {
		// Show the analysis wait state in the acknowledgement itself,
		// then finish in the background.
		writeJSON(w, http.StatusOK, updateMessage(i18n.T(lang, "analyzing")))
	} else {
		writeJSON(w, http.StatusOK, interactionResponse{Type: responseDeferredUpdateMessage})
	}

	go h.background(func(ctx context.Context) {
		action := h.quizSvc.SubmitAnswer(ctx, model.AnswerSubmitted{
			SessionID:     sid,
			QuestionIndex: index,
			Value:         value,
		})
		h.patchAction(ctx, token, lang, action)
	})
}

// background runs fn with its own timeout, detached from the webhook
// request which has already been answered.
func (h *DiscordHandler) background(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	fn(ctx)
}

// patchAction renders a state machine action onto the original
// interaction message.
func (h *DiscordHandler) patchAction(ctx context.Context, token string, lang model.Language, action model.Action) {
	var edit *service.MessageEdit
	switch a := action.(type) {
	case model.QuizStarted:
		edit = questionEdit(a.Session)
	case model.NextQuestion:
		edit = questionEdit(a.Session)
	case model.ResultsReady:
		edit = resultsEdit(a.Language, a.Scores, a.Analysis)
	case model.AlreadyInProgress:
		edit = &service.MessageEdit{Content: i18n.T(a.Language, "inProgress")}
	case model.SessionExpired:
		edit = &service.MessageEdit{Content: i18n.T(a.Language, "expired")}
	case model.ResetDone:
		edit = &service.MessageEdit{Content: i18n.T(a.Language, "reset")}
	case model.ErrorOccurred:
		edit = &service.MessageEdit{Content: i18n.T(a.Language, "error")}
	case model.Ignored:
		return
	default:
		edit = &service.MessageEdit{Content: i18n.T(lang, "error")}
	}
	if err := h.client.EditOriginal(ctx, token, edit); err != nil {
		log.Printf("discord: editing original message failed: %v", err)
	}
}

func questionEdit(session *model.QuizSession) *service.MessageEdit {
	q := session.CurrentQuestion()
	if q == nil {
		return &service.MessageEdit{Content: i18n.T(session.Language, "error")}
	}
	lang := session.Language
	idx := session.CurrentIndex
	title := i18n.Tf(lang, "questionTitle",
		"current", fmt.Sprintf("%d", idx+1),
		"total", fmt.Sprintf("%d", len(session.Questions)),
	)
	return &service.MessageEdit{
		Embeds: []service.Embed{{
			Title:       title,
			Description: q.Statement,
			Color:       colorQuestion,
		}},
		Components: []service.ActionRow{
			{Type: 1, Components: []service.ComponentButton{
				{Type: 2, Style: buttonStyleSuccess, Label: i18n.T(lang, "stronglyAgree"), CustomID: answerData(idx, 2)},
				{Type: 2, Style: buttonStyleSuccess, Label: i18n.T(lang, "agree"), CustomID: answerData(idx, 1)},
			}},
			{Type: 1, Components: []service.ComponentButton{
				{Type: 2, Style: buttonStyleSecondary, Label: i18n.T(lang, "neutral"), CustomID: answerData(idx, 0)},
			}},
			{Type: 1, Components: []service.ComponentButton{
				{Type: 2, Style: buttonStyleDanger, Label: i18n.T(lang, "disagree"), CustomID: answerData(idx, -1)},
				{Type: 2, Style: buttonStyleDanger, Label: i18n.T(lang, "stronglyDis"), CustomID: answerData(idx, -2)},
			}},
		},
	}
}

func resultsEdit(lang model.Language, scores model.Scores, analysis model.Analysis) *service.MessageEdit {
	var b strings.Builder
	b.WriteString("**" + i18n.Tf(lang, "quadrant", "quadrantName", analysis.QuadrantName) + "**\n\n")
	b.WriteString(i18n.Tf(lang, "scores",
		"economic", formatScore(scores.Economic),
		"social", formatScore(scores.Social),
	))
	b.WriteString("\n\n**" + i18n.T(lang, "descriptionHead") + "**\n" + analysis.QuadrantDescription)
	b.WriteString("\n\n**" + i18n.T(lang, "behavioralHead") + "**\n" + analysis.BehavioralAnalysis)
	return &service.MessageEdit{
		Embeds: []service.Embed{{
			Title:       i18n.T(lang, "resultsTitle"),
			Description: b.String(),
			Color:       colorResults,
		}},
	}
}

// updateMessage builds an UpdateMessage acknowledgement that replaces
// the question content and clears its buttons.
func updateMessage(content string) interactionResponse {
	return interactionResponse{
		Type: responseUpdateMessage,
		Data: &interactionResponseData{Content: content},
	}
}

func interactionUserID(interaction *discordInteraction) string {
	if interaction.Member != nil && interaction.Member.User.ID != "" {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}
