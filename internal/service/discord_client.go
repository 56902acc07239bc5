package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordClient wraps the outbound Discord API calls: the follow-up
// PATCH against the original interaction message and command
// registration.
type DiscordClient struct {
	baseURL       string
	botToken      string
	applicationID string
	httpClient    *http.Client
}

// NewDiscordClient creates a Discord REST client. baseURL is normally
// https://discord.com/api/v10 and overridable for tests.
func NewDiscordClient(baseURL, botToken, applicationID string) *DiscordClient {
	return &DiscordClient{
		baseURL:       baseURL,
		botToken:      botToken,
		applicationID: applicationID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Embed is a Discord message embed.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// ComponentButton is one button in an action row.
type ComponentButton struct {
	Type     int    `json:"type"` // 2 = button
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

// ActionRow groups up to five buttons.
type ActionRow struct {
	Type       int               `json:"type"` // 1 = action row
	Components []ComponentButton `json:"components"`
}

// MessageEdit is the payload for patching the original interaction
// message. Embeds and Components are always sent so stale button rows
// get cleared.
type MessageEdit struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds"`
	Components []ActionRow `json:"components"`
}

// EditOriginal PATCHes the original interaction response through the
// webhook keyed by the interaction token, the continuation data stored
// in the session's platform context.
func (c *DiscordClient) EditOriginal(ctx context.Context, interactionToken string, edit *MessageEdit) error {
	body, err := json.Marshal(edit)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/webhooks/%s/%s/messages/@original", c.baseURL, c.applicationID, interactionToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord edit original: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// RegisterCommands registers the global /quiz command with its language
// option. Called once after deployment through the gated admin endpoint.
func (c *DiscordClient) RegisterCommands(ctx context.Context, commands []map[string]interface{}) error {
	body, err := json.Marshal(commands)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/applications/%s/commands", c.baseURL, c.applicationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord register commands: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
