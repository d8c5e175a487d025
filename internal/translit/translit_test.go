package translit

import (
	"testing"

	"github.com/mkaravas/melete/internal/model"
)

func TestGreek(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"g;iasoy", "γίασου"},
		{"ftervt;ow", "φτερωτός"},
		{"kal;o", "καλό"},
		// Diaeresis and acute combine in either modifier order.
		{"uro:;izv", "θροΐζω"},
		{"uro;:izv", "θροΐζω"},
		// A letter with no diaeresis form consumes only the acute.
		{"uro:;azv", "θρο:άζω"},
		// Uppercase and punctuation.
		{";Ela!", "Έλα!"},
		{"q", ";"},
		{"Q", ":"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Transliterate(model.LanguageGreek, tt.in); got != tt.want {
			t.Errorf("Transliterate(gr, %q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnglishPassthrough(t *testing.T) {
	if got := Transliterate(model.LanguageEnglish, "g;iasoy"); got != "g;iasoy" {
		t.Errorf("English input should pass through, got %q", got)
	}
}
