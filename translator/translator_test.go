package translator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bregydoc/gtranslate"
)

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNewSelectsBackend(t *testing.T) {
	tr, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if g, ok := tr.(*Google); !ok || g.From != "auto" {
		t.Fatalf("default backend = %#v, want *Google from auto", tr)
	}

	tr, err = New(Options{Backend: " Echo "})
	if err != nil {
		t.Fatalf("New(echo) error: %v", err)
	}
	if _, ok := tr.(Echo); !ok {
		t.Fatalf("New(echo) = %T, want Echo", tr)
	}

	tr, err = New(Options{Backend: BackendOpenAI, BaseURL: "http://localhost:1/v1", Model: "m"})
	if err != nil {
		t.Fatalf("New(openai) error: %v", err)
	}
	if _, ok := tr.(*OpenAI); !ok {
		t.Fatalf("New(openai) = %T, want *OpenAI", tr)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Options{Backend: "deepl"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestNewOpenAIRequiresModel(t *testing.T) {
	if _, err := New(Options{Backend: BackendOpenAI, BaseURL: "http://localhost/v1"}); err == nil {
		t.Fatal("expected error without model")
	}
	if _, err := New(Options{Backend: BackendOpenAI, Model: "m"}); err == nil {
		t.Fatal("expected error without base URL")
	}
}

// ---------------------------------------------------------------------------
// Echo / Func
// ---------------------------------------------------------------------------

func TestEchoAndFunc(t *testing.T) {
	ctx := context.Background()
	if got, err := (Echo{}).Translate(ctx, "Hello {}", "de"); err != nil || got != "Hello {}" {
		t.Fatalf("Echo = %q, %v", got, err)
	}

	f := Func(func(_ context.Context, text, lang string) (string, error) {
		return lang + ":" + text, nil
	})
	if got, _ := f.Translate(ctx, "hi", "fr"); got != "fr:hi" {
		t.Fatalf("Func = %q, want fr:hi", got)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := (Echo{}).Translate(cancelled, "x", "de"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Echo on cancelled ctx err = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

func TestGooglePassesParams(t *testing.T) {
	var got gtranslate.TranslationParams
	var calls int
	g := NewGoogle("en")
	g.call = func(text string, p gtranslate.TranslationParams) (string, error) {
		calls++
		got = p
		return "Hallo " + text, nil
	}

	out, err := g.Translate(context.Background(), "world", "de")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if out != "Hallo world" {
		t.Fatalf("Translate = %q", out)
	}
	if got.From != "en" || got.To != "de" || got.Tries != 1 {
		t.Fatalf("params = %+v", got)
	}

	if out, _ := g.Translate(context.Background(), "  ", "de"); out != "  " || calls != 1 {
		t.Fatalf("blank input should skip the request, calls=%d out=%q", calls, out)
	}
}

func TestGoogleHonorsCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := NewGoogle("en")
	g.call = func(string, gtranslate.TranslationParams) (string, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := g.Translate(ctx, "hello", "de"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGoogleTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	tr, err := New(Options{Backend: BackendGoogle, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	g := tr.(*Google)
	g.call = func(string, gtranslate.TranslationParams) (string, error) {
		<-release
		return "late", nil
	}

	if _, err := g.Translate(context.Background(), "hello", "de"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestGoogleWrapsError(t *testing.T) {
	boom := errors.New("boom")
	g := NewGoogle("")
	g.call = func(string, gtranslate.TranslationParams) (string, error) { return "", boom }

	_, err := g.Translate(context.Background(), "x", "ja")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

// ---------------------------------------------------------------------------
// OpenAI
// ---------------------------------------------------------------------------

func TestOpenAITranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		if !strings.Contains(req.Messages[0].Content, "German") {
			t.Errorf("system prompt missing language name: %q", req.Messages[0].Content)
		}
		if req.Messages[1].Content != "Hello, {}!" {
			t.Errorf("user message = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hallo, {}! "}}]}`)
	}))
	defer srv.Close()

	tr, err := NewOpenAI(Options{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Translate(context.Background(), "Hello, {}!", "de")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if out != "Hallo, {}! " {
		t.Fatalf("Translate = %q, trailing space must be kept", out)
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"unsupported language"}}`)
	}))
	defer srv.Close()

	tr, err := NewOpenAI(Options{BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = tr.Translate(context.Background(), "hi", "xx")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v, want status 400", err)
	}
}

func TestExtractResponseTextKeepsWhitespace(t *testing.T) {
	tests := []struct {
		content, want string
	}{
		{"  Hallo  ", "  Hallo  "},
		{"Hallo\n", "Hallo\n"},
		{"```\nHallo, {}!\n```", "Hallo, {}!"},
		{"```text\n  Hallo\n```\n", "  Hallo"},
		{"``` inline ```", "``` inline ```"},
	}
	for _, tc := range tests {
		body, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": tc.content}}},
		})
		got, err := extractResponseText(body)
		if err != nil {
			t.Fatalf("extractResponseText(%q) error: %v", tc.content, err)
		}
		if got != tc.want {
			t.Errorf("extractResponseText(%q) = %q, want %q", tc.content, got, tc.want)
		}
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	got := truncate("ab🎉cd", 4)
	if !utf8.ValidString(got) || got != "ab..." {
		t.Errorf("truncate = %q, want %q", got, "ab...")
	}
}

func TestExtractResponseText(t *testing.T) {
	if _, err := extractResponseText([]byte(`{"error":{"message":"bad key"}}`)); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("err = %v, want API error", err)
	}
	if _, err := extractResponseText([]byte(`{"choices":[]}`)); err == nil {
		t.Fatal("expected error for empty choices")
	}
	if _, err := extractResponseText([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// ---------------------------------------------------------------------------
// LanguageName
// ---------------------------------------------------------------------------

func TestLanguageName(t *testing.T) {
	if got := LanguageName("de"); got != "German" {
		t.Errorf("LanguageName(de) = %q", got)
	}
	if got := LanguageName("ru"); got != "Russian" {
		t.Errorf("LanguageName(ru) = %q", got)
	}
	if got := LanguageName("not a tag!"); got != "not a tag!" {
		t.Errorf("LanguageName(invalid) = %q", got)
	}
}
