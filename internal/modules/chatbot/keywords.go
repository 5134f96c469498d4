package chatbot

import (
	"regexp"
	"strings"

	"github.com/acaduss/acaduss-backend/internal/normalization"
)

const maxKeywords = 5

var keywordRE = regexp.MustCompile(`[a-z0-9ñ]{3,}`)

var keywordStopwords = toSet(
	"necesito", "ayuda", "con", "en", "para", "de", "el", "la", "los", "las", "un", "una", "unos", "unas",
	"y", "o", "que", "por", "sobre", "del", "al", "me", "puedes", "puedo", "quiero", "tengo", "hay",
	"ramo", "materia", "curso", "tema", "temas", "apuntes", "notas", "documentos", "pdf", "bbdd", "base", "datos",
)

// ExtractKeywords returns up to five distinct search words from text, in
// order of appearance, with accents folded and common Spanish filler removed.
func ExtractKeywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	out := make([]string, 0, maxKeywords)
	seen := map[string]bool{}
	for _, w := range keywordRE.FindAllString(normalization.Text(text), -1) {
		if keywordStopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

var documentContextPhrases = []string{
	"documento", "documentos", "pdf", "archivo", "archivos", "apunte", "apuntes",
	"subido", "subidos", "analiza", "analizar", "buscar en", "basado en", "basada en",
	"usar documento", "usar documentos", "sobre el documento", "sobre el pdf",
	"referente a", "referente al documento",
}

// NeedsDocumentContext reports whether the user explicitly asks to work from
// uploaded documents.
func NeedsDocumentContext(text string) bool {
	return containsAny(strings.ToLower(text), documentContextPhrases)
}

var notesInventoryPhrases = []string{
	"tienes apuntes", "hay apuntes", "apuntes disponibles", "apuntes en la bbdd", "apuntes en su bbdd",
	"apuntes en la base de datos", "notas en la base de datos", "documentos subidos", "apuntes subidos",
	"tienes notas", "hay notas", "hay documentos", "tienen apuntes",
}

// IsQueryAboutNotes reports whether the user is asking which notes exist.
func IsQueryAboutNotes(text string) bool {
	return containsAny(normalization.Text(text), notesInventoryPhrases)
}

type subjectKeywords struct {
	subject  string
	keywords []string
}

// Ordered: the first subject with a matching keyword wins.
var intentSubjects = []subjectKeywords{
	{"matemáticas", []string{"matematica", "calculo", "algebra", "estadistica", "probabilidad", "derivadas", "integrales"}},
	{"física", []string{"fisica", "mecanica", "termodinamica", "electricidad", "magnetismo", "cinematica", "dinamica"}},
	{"química", []string{"quimica", "quimico", "organica", "inorganica", "estequiometria", "moleculas", "atomos"}},
	{"programación", []string{"programacion", "python", "java", "javascript", "codigo", "algoritmo", "programar"}},
	{"ingeniería", []string{"ingenieria", "estructuras", "materiales", "sistemas", "civil", "mecanica"}},
	{"biología", []string{"biologia", "celulas", "genetica", "ecologia", "anatomia"}},
	{"historia", []string{"historia", "historico", "guerra", "revolucion", "civilizacion"}},
}

var titleSubjects = []subjectKeywords{
	{"matemáticas", []string{"matematica", "calculo", "algebra", "estadistica", "discreta"}},
	{"física", []string{"fisica", "mecanica", "termodinamica", "electricidad"}},
	{"química", []string{"quimica", "organica", "inorganica"}},
	{"programación", []string{"programacion", "python", "java", "algoritmo"}},
}

// DetectSubject returns the first subject whose keywords occur in text, or "".
func DetectSubject(text string) string {
	return matchSubject(normalization.Text(text), intentSubjects)
}

// SubjectFromTitle guesses a document's subject from its title, "general"
// when nothing matches.
func SubjectFromTitle(title string) string {
	if s := matchSubject(normalization.Text(title), titleSubjects); s != "" {
		return s
	}
	return "general"
}

func matchSubject(norm string, table []subjectKeywords) string {
	for _, entry := range table {
		if containsAny(norm, entry.keywords) {
			return entry.subject
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func toSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}
