package refresh

import (
	"testing"
)

func TestParseSuggestionsRejectsMalformedJSON(t *testing.T) {
	if _, err := parseSuggestions("not json"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseSuggestionsAcceptsWellFormedDocument(t *testing.T) {
	doc := `{"suggestions": [{"model": "llama-3.1-70b", "workload": "chat", "rationale": "cheap and fast", "production_ready": true}]}`
	out, err := parseSuggestions(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(out.Suggestions))
	}
	if out.Suggestions[0].Model != "llama-3.1-70b" {
		t.Fatalf("unexpected model: %q", out.Suggestions[0].Model)
	}
}

func TestParseSuggestionsToleratesExtraWhitespace(t *testing.T) {
	doc := "\n\n  {\"suggestions\": []}  \n"
	out, err := parseSuggestions(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out.Suggestions) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(out.Suggestions))
	}
}
