package chatbot

import (
	"fmt"
	"strings"

	types "github.com/acaduss/acaduss-backend/internal/domain"
)

const tutorSystemPrompt = `Eres un tutor académico directo y eficiente. Tu personalidad es:

🎓 **Estudiante experto**: Explicas conceptos de forma clara y práctica
💡 **Adaptativo**: Ajustas tu explicación según el nivel del estudiante
📚 **Basado en evidencia**: Usas documentos y apuntes cuando están disponibles
🎯 **Práctico**: Das ejemplos concretos y ejercicios cuando es útil

**Reglas de respuesta:**
- Sé directo y conciso, evita mensajes verbosos innecesarios
- NO uses frases como "Me alegra que estés buscando ayuda" o "Recuerda que la práctica es esencial"
- NO incluyas motivación genérica que no aporta valor
- Ve directo al grano: explica conceptos, resuelve problemas, muestra recursos
- Si detectas una materia específica, busca apuntes relacionados automáticamente
- Cuando muestres apuntes, solo incluye título y materia (sin rating ni vistas)
- Si no tienes información específica, sé honesto pero útil

**IMPORTANTE - Documentos:**
- NUNCA inventes o generes nombres de documentos que no existen
- NUNCA menciones documentos como "Apuntes completos de..." a menos que estén en el contexto proporcionado
- SOLO menciona documentos que estén explícitamente en el contexto de documentos
- Si no hay documentos en el contexto, NO sugieras documentos específicos
- Si hay documentos relevantes, úsalos para fundamentar tu respuesta
- Cita las fuentes de forma natural
- Si no hay documentos específicos, busca en la base de datos de apuntes
- Muestra apuntes disponibles de forma simple: solo título y materia

Responde siempre en español de forma directa y útil.`

const analysisSystemPrompt = `Eres un asistente académico especializado en análisis de documentos.
Tu tarea es analizar el contenido de los documentos PDF subidos y responder preguntas específicas basándote en ese contenido.
Responde siempre en español y sé preciso con la información extraída de los documentos.`

func quizSystemPrompt(count int, quizType QuizType) string {
	return fmt.Sprintf(`Eres un profesor experto que crea quizzes educativos. Tu tarea es crear un quiz de %d preguntas de tipo %s basándote ÚNICAMENTE en el contenido del documento proporcionado.

IMPORTANTE:
- Usa SOLO la información del documento proporcionado
- NO uses conocimiento general sobre el tema
- Si el documento no tiene suficiente información, indica cuántas preguntas puedes crear
- Las preguntas deben ser específicas al contenido del documento
- Incluye las respuestas correctas al final

Formato de respuesta:
1. Pregunta 1
a) Opción A
b) Opción B
c) Opción C
d) Opción D

2. Pregunta 2
...

RESPUESTAS:
1. Respuesta correcta
2. Respuesta correcta
...`, count, quizType)
}

func quizUserPrompt(count int, quizType QuizType, title, subject, content, request string) string {
	return strings.Join([]string{
		fmt.Sprintf("Crea un quiz de %d preguntas de %s basándote ÚNICAMENTE en este documento:", count, quizType),
		"",
		"TÍTULO: " + title,
		"MATERIA: " + subject,
		"",
		"CONTENIDO DEL DOCUMENTO:",
		content,
		"",
		"Solicitud original: " + request,
	}, "\n")
}

func quizAnswer(title, quiz string) string {
	return fmt.Sprintf("📝 **Quiz basado en \"%s\"**\n\n%s\n\n---\n*Este quiz fue generado específicamente del documento \"%s\". Si necesitas más preguntas o sobre otro tema, házmelo saber.*", title, quiz, title)
}

var styleInstructions = map[Style]string{
	StyleConcise:    "Sé conciso.",
	StyleStepByStep: "Explica paso a paso.",
}

// contextualPrompt adds only the context that differs from the defaults.
func contextualPrompt(text string, intent Intent, convCtx ConversationContext, docContext string) string {
	var b strings.Builder
	b.WriteString("Pregunta: " + text)
	if n := len(convCtx.RecentTopics); n > 0 && n <= 3 {
		b.WriteString("\n\nContexto: " + strings.Join(convCtx.RecentTopics, ", ") + ".")
	}
	if convCtx.UserLevel != "" && convCtx.UserLevel != LevelIntermediate {
		b.WriteString("\n\nNivel: " + string(convCtx.UserLevel) + ".")
	}
	if instr, ok := styleInstructions[convCtx.PreferredStyle]; ok {
		b.WriteString("\n\nEstilo: " + instr)
	}
	b.WriteString(docContext)
	if intent.Subject != "" {
		b.WriteString("\n\nMateria: " + intent.Subject + ".")
	}
	return b.String()
}

func answerTemperature(intent Intent, convCtx ConversationContext) float64 {
	switch {
	case intent.Type == IntentSubjectSpecific && convCtx.UserLevel == LevelBeginner:
		return 0.3
	case intent.Type == IntentAcademicHelp && convCtx.PreferredStyle == StyleStepByStep:
		return 0.4
	default:
		return 0.7
	}
}

func answerMaxTokens(convCtx ConversationContext) int {
	switch convCtx.PreferredStyle {
	case StyleDetailed:
		return 2000
	case StyleConcise:
		return 800
	default:
		return 1500
	}
}

// documentList renders "1. Title (Subject)" lines.
func documentList(docs []*types.Document) string {
	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s", i+1, d.DisplayTitle())
		if s := strings.TrimSpace(d.Subject); s != "" {
			fmt.Fprintf(&b, " (%s)", s)
		}
		b.WriteString("\n")
	}
	return b.String()
}
