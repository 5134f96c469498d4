package chatbot

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerateTitle(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{text: "Pregunta del estudiante: ¿Qué es la derivada de x^2?", want: "¿Qué es derivada x^2?"},
		{text: "", want: "Nueva conversación"},
		{text: "```go\nfmt.Println(1)\n```", want: "Nueva conversación"},
		{text: "explica `map` en https://go.dev/doc por favor", want: "Explica map favor"},
		{text: "resuelve $x^2 = 4$ para x", want: "Resuelve x"},
		{
			text: "Necesito entender cómo funcionan las transformaciones lineales en espacios vectoriales",
			want: "Necesito entender cómo funcionan transformaciones lineales…",
		},
	}
	for _, tc := range cases {
		if got := GenerateTitle(tc.text); got != tc.want {
			t.Fatalf("GenerateTitle(%q)=%q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestGenerateTitleHardCutsLongWords(t *testing.T) {
	for _, text := range []string{
		"Explica la hipopotomonstrosesquipedaliofobiaextremadamentelargaaaaaaaaa ahora",
		"Pregunta del estudiante: hipopotomonstrosesquipedaliofobiaextremadamentelargaaaaaaaaaaaaaa",
	} {
		got := GenerateTitle(text)
		if n := utf8.RuneCountInString(got); n != titleMaxRunes {
			t.Fatalf("GenerateTitle(%q)=%q has %d runes, want %d", text, got, n, titleMaxRunes)
		}
		if !strings.HasSuffix(got, "…") {
			t.Fatalf("GenerateTitle(%q)=%q, want trailing ellipsis", text, got)
		}
	}
}

func TestExtractRequestedTitle(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{text: `usa el apunte "Cálculo I" para la prueba`, want: "Cálculo I", ok: true},
		{text: `utiliza el pdf 'Álgebra lineal' por favor`, want: "Álgebra lineal", ok: true},
		{text: "usa el apunte Mecánica clásica.", want: "Mecánica clásica", ok: true},
		{text: "Resumen: Termodinámica;", want: "Termodinámica", ok: true},
		{text: "pregunta:", ok: false},
		{text: "¿qué es una derivada?", ok: false},
		{text: "   ", ok: false},
	}
	extractors := DefaultTitleExtractors()
	for _, tc := range cases {
		got, ok := ExtractRequestedTitle(extractors, tc.text)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ExtractRequestedTitle(%q)=(%q,%v), want (%q,%v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

type fixedTitle string

func (f fixedTitle) ExtractTitle(string) (string, bool) { return string(f), f != "" }

func TestExtractRequestedTitleFirstMatchWins(t *testing.T) {
	got, ok := ExtractRequestedTitle([]TitleExtractor{fixedTitle(""), fixedTitle("Primero"), fixedTitle("Segundo")}, "x")
	if !ok || got != "Primero" {
		t.Fatalf("got (%q,%v)", got, ok)
	}
}
