package model

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Flagship", CategoryFlagship},
		{" flagship sponsor", CategoryFlagship},
		{"ELIGIBLE", CategoryEligible},
		{"Rejected", CategoryRejected},
		{"maybe?", CategoryRejected},
		{"", CategoryRejected},
	}
	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDecisionString(t *testing.T) {
	d := Decision{Category: CategoryEligible, Reasoning: "Stable finances."}
	if got := d.String(); got != "Eligible Sponsor: Stable finances." {
		t.Errorf("String() = %q", got)
	}

	if got := TechnicalErrorDecision().String(); got != "Rejected Sponsor: Unable to complete research due to technical error" {
		t.Errorf("technical error decision = %q", got)
	}

	if got := (Decision{Reasoning: "x"}).String(); got != "Rejected Sponsor: x" {
		t.Errorf("zero category = %q", got)
	}
}

func TestSponsorRecord(t *testing.T) {
	rec := SponsorRecord{Row: 4, Fields: map[string]string{
		"Timestamp":     "2025-01-01 10:00",
		"Company Name ": "  Acme  ",
		"Website URL":   "acme.example",
	}}

	if got := rec.CompanyName(); got != "Acme" {
		t.Errorf("CompanyName() = %q, want trimmed-header fallback", got)
	}
	if !rec.IsValid() {
		t.Error("expected valid record")
	}
	if !rec.IsUnprocessed() {
		t.Error("expected unprocessed record")
	}

	rec.Fields["Decision"] = "Eligible Sponsor: ok"
	if rec.IsUnprocessed() {
		t.Error("record with a decision is processed")
	}

	empty := SponsorRecord{Fields: map[string]string{"Timestamp": "x"}}
	if empty.IsValid() {
		t.Error("record without company name is invalid")
	}
	if empty.DisplayName() != "Unknown" {
		t.Errorf("DisplayName() = %q", empty.DisplayName())
	}
}

func TestSponsorRecord_TrimmedHeaderFallbackIsOrdered(t *testing.T) {
	fields := map[string]string{
		" Company Name": "Second",
		"Company Name ": "First",
	}

	rec := SponsorRecord{Fields: fields, Headers: []string{"Company Name ", "Timestamp", " Company Name"}}
	for i := 0; i < 50; i++ {
		if got := rec.CompanyName(); got != "First" {
			t.Fatalf("CompanyName() = %q, want the leftmost column", got)
		}
	}

	// Without a header order the choice is still stable
	rec.Headers = nil
	for i := 0; i < 50; i++ {
		if got := rec.CompanyName(); got != "Second" {
			t.Fatalf("CompanyName() = %q, want the first header in sorted order", got)
		}
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant(" Blog "); err != nil || v != VariantBlog {
		t.Errorf("ParseVariant(blog) = %v, %v", v, err)
	}
	if _, err := ParseVariant("podcast"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestSchemaMissingFrom(t *testing.T) {
	schema, ok := SchemaFor(VariantBlog)
	if !ok {
		t.Fatal("blog schema missing")
	}
	header := append([]string(nil), schema.Columns...)
	header[1] = header[1] + " "
	if missing := schema.MissingFrom(header); len(missing) != 0 {
		t.Errorf("unexpected missing columns: %v", missing)
	}

	missing := schema.MissingFrom(header[:len(header)-2])
	if len(missing) != 2 || missing[0] != ColumnResearchNotes || missing[1] != ColumnDecision {
		t.Errorf("MissingFrom = %v", missing)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.LLM.OpenAIAPIKey = "sk-abcdefghijkl"
	cfg.Google.ClientID = "id"
	cfg.Google.ClientSecret = "secret-value-123"
	cfg.Google.RefreshToken = "1//refresh-token"
	cfg.Sheets.MediaURL = "https://docs.google.com/spreadsheets/d/media/edit"
	cfg.Sheets.BlogURL = "https://docs.google.com/spreadsheets/d/blog/edit"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	cfg := validConfig()
	cfg.LLM.OpenAIAPIKey = ""
	cfg.Sheets.BlogURL = " "
	err := cfg.Validate()

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	want := "missing required environment variables: BLOG_SHEET_URL, OPENAI_API_KEY"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConfigValidate_ProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.OpenAIAPIKey = ""
	cfg.LLM.Provider = "ollama"
	if err := cfg.Validate(); err != nil {
		t.Errorf("ollama needs no key: %v", err)
	}

	cfg.LLM.Provider = "anthropic"
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Missing[0] != "ANTHROPIC_API_KEY" {
		t.Errorf("Validate() = %v, want missing ANTHROPIC_API_KEY", err)
	}
}

func TestConfigValidate_EmptyProviderIsOpenAI(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	cfg.LLM.OpenAIAPIKey = ""
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || len(cfgErr.Missing) != 1 || cfgErr.Missing[0] != "OPENAI_API_KEY" {
		t.Errorf("Validate() = %v, want missing OPENAI_API_KEY", err)
	}
	if cfg.LLM.APIKeyEnv() != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnv() = %q", cfg.LLM.APIKeyEnv())
	}
}

func TestConfigValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "mistral"
	cfg.Sheets.MediaURL = ""

	err := cfg.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.UnknownProvider != "mistral" {
		t.Errorf("UnknownProvider = %q", cfgErr.UnknownProvider)
	}
	want := `unknown LLM provider "mistral"; missing required environment variables: MEDIA_SHEET_URL`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	for _, name := range []string{"OpenAI", "claude", "google", "ollama", "openai-chat"} {
		cfg := validConfig()
		cfg.LLM.Provider = name
		cfg.LLM.AnthropicAPIKey = "a"
		cfg.LLM.GeminiAPIKey = "g"
		if err := cfg.Validate(); err != nil {
			t.Errorf("provider %q: Validate() = %v", name, err)
		}
	}
}

func TestConfigRedacted(t *testing.T) {
	cfg := validConfig()
	r := cfg.Redacted()

	if r.LLM.OpenAIAPIKey != "sk-a****kl" {
		t.Errorf("OpenAIAPIKey = %q", r.LLM.OpenAIAPIKey)
	}
	if r.Google.ClientSecret != "secr****23" {
		t.Errorf("ClientSecret = %q", r.Google.ClientSecret)
	}
	if r.LLM.AnthropicAPIKey != "" {
		t.Errorf("empty secret should stay empty, got %q", r.LLM.AnthropicAPIKey)
	}
	if cfg.LLM.OpenAIAPIKey != "sk-abcdefghijkl" {
		t.Error("Redacted must not modify the receiver")
	}

	short := DefaultConfig()
	short.Google.RefreshToken = "abc"
	if got := short.Redacted().Google.RefreshToken; got != "****" {
		t.Errorf("short secret = %q", got)
	}
}

func TestSheetsURLFor(t *testing.T) {
	s := SheetsConfig{MediaURL: "m", BlogURL: "b"}
	if s.URLFor(VariantMedia) != "m" || s.URLFor(VariantBlog) != "b" || s.URLFor("x") != "" {
		t.Error("URLFor mismatch")
	}
}

func TestWebsiteSnapshotIsEmpty(t *testing.T) {
	var nilSnap *WebsiteSnapshot
	if !nilSnap.IsEmpty() {
		t.Error("nil snapshot is empty")
	}
	if (&WebsiteSnapshot{URL: "x"}).IsEmpty() != true {
		t.Error("snapshot without content is empty")
	}
	if (&WebsiteSnapshot{Title: "Acme"}).IsEmpty() {
		t.Error("snapshot with title is not empty")
	}
}
