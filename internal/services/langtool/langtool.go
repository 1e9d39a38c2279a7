// Package langtool is a minimal client for the LanguageTool HTTP API. It
// posts text to /check and applies the suggested replacements.
package langtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Match is one grammar finding with its suggested replacements.
type Match struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
}

type checkResponse struct {
	Matches []Match `json:"matches"`
}

// Client talks to a LanguageTool server.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// New builds a client for the server at baseURL (e.g.
// http://localhost:8010/v2).
func New(baseURL, language string, timeout time.Duration) *Client {
	if language == "" {
		language = "en-US"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Check returns the grammar findings for text.
func (c *Client) Check(ctx context.Context, text string) ([]Match, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check text: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("check text: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}
	return parsed.Matches, nil
}

// Correct applies the first replacement of every finding, working from the
// end of the text so earlier offsets stay valid.
func (c *Client) Correct(ctx context.Context, text string) (string, error) {
	matches, err := c.Check(ctx, text)
	if err != nil {
		return "", err
	}

	runes := []rune(text)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if len(m.Replacements) == 0 {
			continue
		}
		if m.Offset < 0 || m.Offset+m.Length > len(runes) {
			continue
		}
		replacement := []rune(m.Replacements[0].Value)
		out := make([]rune, 0, len(runes)-m.Length+len(replacement))
		out = append(out, runes[:m.Offset]...)
		out = append(out, replacement...)
		out = append(out, runes[m.Offset+m.Length:]...)
		runes = out
	}
	return string(runes), nil
}
