package tokenize

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "elision",
			text: "l'arbre",
			want: []string{"l", "arbre"},
		},
		{
			name: "typographic apostrophe",
			text: "L’enfant qu’il voit",
			want: []string{"l", "enfant", "qu", "il", "voit"},
		},
		{
			name: "lower-cases and strips punctuation",
			text: "Le chat dort, puis il mange !",
			want: []string{"le", "chat", "dort", "puis", "il", "mange"},
		},
		{
			name: "accented letters are word characters",
			text: "L'élève a déjà mangé une crème brûlée.",
			want: []string{"l", "élève", "a", "déjà", "mangé", "une", "crème", "brûlée"},
		},
		{
			name: "hyphenated forms stay whole",
			text: "Peut-être a-t-il raison",
			want: []string{"peut-être", "a-t-il", "raison"},
		},
		{
			name: "decomposed accents are composed",
			text: "e\u0301le\u0300ve",
			want: []string{"élève"},
		},
		{
			name: "trailing apostrophe drops empty piece",
			text: "jusqu' ici",
			want: []string{"jusqu", "ici"},
		},
		{
			name: "digits kept",
			text: "les 3 pommes de terre",
			want: []string{"les", "3", "pommes", "de", "terre"},
		},
		{
			name: "spaced dash is punctuation",
			text: "le chat - il dort",
			want: []string{"le", "chat", "il", "dort"},
		},
		{
			name: "double dash is punctuation",
			text: "un -- deux",
			want: []string{"un", "deux"},
		},
		{
			name: "dash glued to apostrophe",
			text: "l'- arbre",
			want: []string{"l", "arbre"},
		},
		{
			name: "punctuation only",
			text: "?!…",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.text)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.text, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "empty", text: "", want: ErrEmptyInput},
		{name: "whitespace", text: " \t\n", want: ErrEmptyInput},
		{name: "invalid utf8", text: string([]byte{0xff, 0xfe}), want: ErrInvalidText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.text)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Tokenize(%q) error = %v, want %v", tt.text, err, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("Pomme De Terre’s"); got != "pomme de terre's" {
		t.Fatalf("Normalize() = %q", got)
	}
}
