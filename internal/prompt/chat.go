// Package prompt turns transcripts and planning parameters into the text
// sent to the generation service. Nothing here performs I/O.
package prompt

import (
	"strings"

	"github.com/dom/jumbah-travel/internal/domain"
)

// MaxRecentTurns is how much of a transcript is replayed to the model.
const MaxRecentTurns = 8

// RefusalSentence is the exact reply the model is told to give to
// off-topic messages.
const RefusalSentence = "Sorry, I can only help with Sabah travel questions."

const persona = `You are JumBah AI, a friendly and casual travel assistant for Sabah, Malaysia.

Keep your responses conversational and natural - like talking to a knowledgeable local friend. Don't use formal structures, bullet points, or numbered lists unless specifically asked. Just chat naturally about Sabah travel topics.

You know about:
- Sabah attractions like Mount Kinabalu, Sipadan Island, wildlife parks
- Local food, restaurants, and cultural experiences
- Transportation, accommodation, and practical travel tips
- Costs and timing for activities
- Local customs and hidden gems

Be enthusiastic but casual. Give helpful advice in a natural conversational way. If someone asks something outside of Sabah travel, politely redirect the conversation back to helping them explore Sabah.

Keep responses focused and conversational - avoid overly structured or formal formatting.`

const refusalInstruction = `You are ONLY a Sabah travel assistant.

If the user's message is unrelated to Sabah travel, reply EXACTLY with:
"` + RefusalSentence + `"

Do not provide suggestions, alternatives, or reframe their question.
Keep responses conversational and short. Avoid bullet points unless the user asks for them.`

// Persona returns the fixed system script prepended to every chat prompt.
func Persona() string {
	return persona
}

// RefusalInstruction returns the off-topic instruction that follows the persona.
func RefusalInstruction() string {
	return refusalInstruction
}

// Recent returns the suffix of turns that BuildChat should see.
func Recent(turns []domain.Turn) []domain.Turn {
	if len(turns) <= MaxRecentTurns {
		return turns
	}
	return turns[len(turns)-MaxRecentTurns:]
}

// BuildChat renders the persona, the refusal instruction, the given turns
// and the new user message. Callers clip the turns with Recent; BuildChat
// clips again so an oversized slice never reaches the model.
func BuildChat(recent []domain.Turn, message string) string {
	recent = Recent(recent)

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n")
	b.WriteString(refusalInstruction)

	if len(recent) == 0 {
		b.WriteString("\n\nUser: ")
		b.WriteString(message)
		return b.String()
	}

	b.WriteString("\n\nRecent conversation:\n")
	for _, turn := range recent {
		b.WriteString(speaker(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}

func speaker(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "You"
	}
	return "User"
}
