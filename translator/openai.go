package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSystemPrompt instructs the model to translate a single bot string.
// {{targetLang}} is replaced with the target language name.
const DefaultSystemPrompt = `You are a professional translator localizing chat bot messages into {{targetLang}}.

RULES:
- Translate the user message into {{targetLang}} naturally, not word-for-word.
- Keep every "{}" placeholder exactly as-is; never translate, remove, or reorder-merge them.
- Keep runs of "@" characters exactly as-is.
- Keep Markdown, HTML tags, slash commands (/start), URLs, and emoji unchanged.
- Preserve leading/trailing whitespace and line breaks.
- Return ONLY the translated text, no quotes, explanations, or code blocks.`

const defaultOpenAITimeout = 60 * time.Second

// OpenAI translates through an OpenAI-compatible /chat/completions endpoint
// (OpenAI, Groq, Ollama, LiteLLM and similar).
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	prompt  string
	verbose bool
	client  *http.Client
}

// NewOpenAI returns an OpenAI-compatible backend.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("openai backend: base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("openai backend: invalid base URL: %w", err)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("openai backend: model is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpenAITimeout
	}
	return &OpenAI{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		prompt:  DefaultSystemPrompt,
		verbose: opts.Verbose,
		client:  makeHTTPClient(opts.Proxy, timeout),
	}, nil
}

// Translate sends one string as a single chat completion request.
func (o *OpenAI) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	systemPrompt := strings.ReplaceAll(o.prompt, "{{targetLang}}", LanguageName(targetLang))
	body, err := buildChatRequest(o.model, systemPrompt, text, 0.3)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	endpoint := o.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	if o.verbose {
		log.Printf("[DEBUG] POST %s (model %s, lang %s)", endpoint, o.model, targetLang)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	return extractResponseText(respBody)
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request / response
// ---------------------------------------------------------------------------

func buildChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

// extractResponseText returns choices[0].message.content, or the API error
// message if the body carries one.
func extractResponseText(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
	}
	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

// stripCodeFence removes a ``` fence wrapped around the whole reply.
// Any other leading or trailing whitespace is part of the translation.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	inner := strings.TrimSuffix(t[3:], "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSuffix(inner[nl+1:], "\n")
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
