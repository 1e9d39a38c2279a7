package grammar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gavel/internal/config"
	"gavel/internal/grammar"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	cfg := config.Default()
	cfg.Grammar.Enabled = false
	if corrector := grammar.New(&cfg, nil); corrector != nil {
		t.Fatal("expected nil corrector when disabled")
	}
}

func TestCorrectAppliesFixesAndCapitalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"matches":[{"offset":0,"length":2,"replacements":[{"value":"we"}]}]}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Grammar.Enabled = true
	cfg.Grammar.URL = server.URL

	corrector := grammar.New(&cfg, nil)
	got, err := corrector.Correct(context.Background(), "we convene today. the clerk will call roll.")
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if got != "We convene today. The clerk will call roll." {
		t.Fatalf("Correct() = %q", got)
	}
}

func TestCorrectDegradesWhenServerUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Grammar.Enabled = true
	cfg.Grammar.URL = server.URL

	corrector := grammar.New(&cfg, nil)
	got, err := corrector.Correct(context.Background(), "the session stands adjourned.")
	if err != nil {
		t.Fatalf("Correct() must degrade, got error %v", err)
	}
	if got != "The session stands adjourned." {
		t.Fatalf("Correct() = %q", got)
	}
}
