package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TelegramClient wraps the outbound Telegram Bot API calls. The platform
// enforces no reply SLA, so calls may run inline in the webhook handler.
type TelegramClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewTelegramClient creates a Bot API client. baseURL is normally
// https://api.telegram.org and overridable for tests.
func NewTelegramClient(baseURL, token string) *TelegramClient {
	return &TelegramClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// InlineKeyboardButton is one answer button.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboardMarkup is the reply keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// call posts one Bot API method and checks the ok envelope.
func (c *TelegramClient) call(ctx context.Context, method string, params interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: decoding response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: %s", method, envelope.Description)
	}
	return nil
}

// SendMessage sends a chat message, optionally with an inline keyboard
// and Markdown parsing.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup, markdown bool) error {
	params := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	if markdown {
		params["parse_mode"] = "Markdown"
	}
	return c.call(ctx, "sendMessage", params)
}

// EditMessageText replaces a message's text and clears its keyboard.
func (c *TelegramClient) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	return c.call(ctx, "editMessageText", map[string]interface{}{
		"chat_id":      chatID,
		"message_id":   messageID,
		"text":         text,
		"reply_markup": InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}},
	})
}

// DeleteMessage removes a message.
func (c *TelegramClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

// AnswerCallbackQuery acks a button press so the client stops its
// spinner.
func (c *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackQueryID,
	})
}
