// Package chat is the boundary to the chat platform. The orchestrator only
// sees the Messenger interface; Client speaks the Slack Web API shape
// directly.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Message is one outbound post. User targets an ephemeral message; Blocks
// are optional rich content alongside the plain-text fallback.
type Message struct {
	Channel   string
	ThreadTS  string
	User      string
	Text      string
	Blocks    []Block
	Broadcast bool
}

type Messenger interface {
	// PostMessage posts to a channel/thread and returns (channel, ts) of
	// the created message.
	PostMessage(ctx context.Context, m Message) (string, string, error)
	// PostEphemeral posts a message visible only to m.User.
	PostEphemeral(ctx context.Context, m Message) error
}

// ActionPayload round-trips through button values: it carries the acting
// player, the game, and the thread, and comes back unmodified on each
// button press.
type ActionPayload struct {
	GameID   string `json:"game_id"`
	Player   string `json:"player"`
	ThreadTS string `json:"thread_ts"`
}

func (p ActionPayload) Encode() string {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err) // three string fields cannot fail to marshal
	}
	return string(b)
}

func DecodeActionPayload(s string) (ActionPayload, error) {
	var p ActionPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return ActionPayload{}, fmt.Errorf("decode action payload: %w", err)
	}
	return p, nil
}

// ----- blocks -----

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Button struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text"`
	Value    string `json:"value"`
	ActionID string `json:"action_id"`
}

type Block struct {
	Type     string   `json:"type"`
	BlockID  string   `json:"block_id,omitempty"`
	Text     *Text    `json:"text,omitempty"`
	Title    *Text    `json:"title,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	AltText  string   `json:"alt_text,omitempty"`
	Elements []Button `json:"elements,omitempty"`
}

func SectionBlock(text string) Block {
	return Block{Type: "section", Text: &Text{Type: "plain_text", Text: text}}
}

func MarkdownSection(text string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: text}}
}

func ImageBlock(title, url, alt string) Block {
	return Block{
		Type:     "image",
		Title:    &Text{Type: "plain_text", Text: title},
		ImageURL: url,
		AltText:  alt,
	}
}

func ActionsBlock(id string, buttons ...Button) Block {
	return Block{Type: "actions", BlockID: id, Elements: buttons}
}

func NewButton(label, value, actionID string) Button {
	return Button{
		Type:     "button",
		Text:     &Text{Type: "plain_text", Text: label},
		Value:    value,
		ActionID: actionID,
	}
}

// ----- HTTP client -----

const defaultAPIBase = "https://slack.com/api"

type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	if strings.TrimSpace(base) == "" {
		base = defaultAPIBase
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("CHAT_API_BASE"), os.Getenv("CHAT_BOT_TOKEN"))
}

type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

func (c *Client) PostMessage(ctx context.Context, m Message) (string, string, error) {
	body := map[string]any{
		"channel": m.Channel,
		"text":    m.Text,
	}
	if m.ThreadTS != "" {
		body["thread_ts"] = m.ThreadTS
	}
	if len(m.Blocks) > 0 {
		body["blocks"] = m.Blocks
	}
	if m.Broadcast {
		body["reply_broadcast"] = true
	}
	r, err := c.call(ctx, "chat.postMessage", body)
	if err != nil {
		return "", "", err
	}
	return r.Channel, r.TS, nil
}

func (c *Client) PostEphemeral(ctx context.Context, m Message) error {
	body := map[string]any{
		"channel": m.Channel,
		"user":    m.User,
		"text":    m.Text,
	}
	if m.ThreadTS != "" {
		body["thread_ts"] = m.ThreadTS
	}
	if len(m.Blocks) > 0 {
		body["blocks"] = m.Blocks
	}
	_, err := c.call(ctx, "chat.postEphemeral", body)
	return err
}

func (c *Client) call(ctx context.Context, method string, body map[string]any) (*apiResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+method, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat %s http %d: %s", method, resp.StatusCode, truncate(buf.String(), 500))
	}
	var r apiResponse
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		return nil, fmt.Errorf("chat %s: %w", method, err)
	}
	if !r.OK {
		return nil, fmt.Errorf("chat %s: %s", method, r.Error)
	}
	return &r, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
