package models

import (
	"testing"
)

func TestFindQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *FindQuery
		wantK   int
		wantErr bool
	}{
		{"empty query", &FindQuery{Query: ""}, 0, true},
		{"sets default k", &FindQuery{Query: "x"}, 5, false},
		{"keeps explicit k", &FindQuery{Query: "x", K: 2}, 2, false},
		{"caps k at max", &FindQuery{Query: "x", K: 200}, 50, false},
		{"keeps negative k", &FindQuery{Query: "x", K: -1}, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(5, 50)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.K != tt.wantK {
				t.Errorf("K = %d, want %d", tt.query.K, tt.wantK)
			}
		})
	}
}

func TestHelpEntry_EmbeddingText(t *testing.T) {
	tests := []struct {
		entry HelpEntry
		want  string
	}{
		{HelpEntry{Title: "Reset password", Body: "Open settings."}, "Reset password\n\nOpen settings."},
		{HelpEntry{Body: "Only body"}, "Only body"},
		{HelpEntry{Title: "Only title"}, "Only title"},
	}
	for _, tt := range tests {
		if got := tt.entry.EmbeddingText(); got != tt.want {
			t.Errorf("EmbeddingText() = %q, want %q", got, tt.want)
		}
	}
}
