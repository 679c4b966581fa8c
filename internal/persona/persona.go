// Package persona implements the tutoring personas and the handoff state
// machine that moves a session between them. Each persona is a closed role
// with its own instructions, voice tag, and tool surface; a handoff discards
// the active persona and constructs its successor around the same shared
// catalog and mastery store.
package persona

import (
	"fmt"
	"strings"

	"voxtutor/internal/catalog"
)

// Tag identifies one of the four persona states.
type Tag string

const (
	TagCoordinator Tag = "coordinator"
	TagLearn       Tag = "learn"
	TagQuiz        Tag = "quiz"
	TagTeachBack   Tag = "teach_back"
)

// AllTags lists every persona state in a stable order.
func AllTags() []Tag {
	return []Tag{TagCoordinator, TagLearn, TagQuiz, TagTeachBack}
}

// VoiceTags maps each persona to an opaque voice/style tag. The core never
// interprets these; the TTS layer does.
type VoiceTags map[Tag]string

// DefaultVoices returns the stock voice assignment.
func DefaultVoices() VoiceTags {
	return VoiceTags{
		TagCoordinator: "en-US-matthew",
		TagLearn:       "en-US-julia",
		TagQuiz:        "en-US-terrell",
		TagTeachBack:   "en-US-natalie",
	}
}

// Persona is one immutable conversational role instance. A persona is owned
// by exactly one session and replaced wholesale on handoff; it carries no
// dialogue memory of its own.
type Persona struct {
	tag     Tag
	voice   string
	catalog *catalog.Catalog
}

func newPersona(tag Tag, voice string, cat *catalog.Catalog) *Persona {
	return &Persona{tag: tag, voice: voice, catalog: cat}
}

// Tag returns the persona's state tag.
func (p *Persona) Tag() Tag { return p.tag }

// Voice returns the opaque voice tag for the TTS layer.
func (p *Persona) Voice() string { return p.voice }

// Catalog returns the shared read-only concept catalog.
func (p *Persona) Catalog() *catalog.Catalog { return p.catalog }

// DisplayName returns a short human-readable role name, used in handoff
// status messages.
func (p *Persona) DisplayName() string {
	switch p.tag {
	case TagCoordinator:
		return "learning coordinator"
	case TagLearn:
		return "learning tutor"
	case TagQuiz:
		return "quiz tutor"
	case TagTeachBack:
		return "teach-back coach"
	default:
		return string(p.tag)
	}
}

// Instructions builds the persona's system prompt, including the loaded
// concept titles so the model knows what content exists.
func (p *Persona) Instructions() string {
	titles := p.catalog.Titles()
	available := "No learning content is currently available."
	if len(titles) > 0 {
		available = "Available concepts: " + strings.Join(titles, ", ") + "."
	}

	var role string
	switch p.tag {
	case TagCoordinator:
		role = `You are the coordinator of a voice-based tutoring system. The user is
interacting with you via voice. Your job is to find out how the user wants to
study and hand the conversation to the right tutor.

Three modes are available:
- Learn: a tutor explains concepts step by step.
- Quiz: a tutor asks questions to test knowledge.
- Teach-back: the user explains a concept and gets scored feedback.

When the user picks a mode, call the matching switch tool. Do not try to
teach, quiz, or evaluate yourself.`
	case TagLearn:
		role = `You are a patient learning tutor in a voice-based tutoring system. Use the
explain_concept tool to fetch the reference explanation for a concept the
user asks about, then present it conversationally. If the user wants to be
quizzed or wants to explain something back, switch modes with the matching
switch tool.`
	case TagQuiz:
		role = `You are a quiz tutor in a voice-based tutoring system. Use the ask_question
tool to fetch a question about the topic the user picks, ask it, and give
brief feedback on their answer. Switch modes with the matching switch tool
when the user asks, or hand back to the coordinator if they are unsure what
to do next.`
	case TagTeachBack:
		role = `You are a teach-back coach in a voice-based tutoring system. Ask the user to
explain a concept in their own words, then pass their full explanation to the
evaluate_explanation tool and relay the scored feedback. Use
get_weakest_concepts when the user asks what to work on. Switch modes with
the matching switch tool when the user asks.`
	}

	continuity := ""
	if p.tag != TagCoordinator {
		continuity = `

The conversation is already in progress. Continue naturally from what the
user just said; never re-ask questions they have already answered.`
	}

	return role + "\n\n" + available + continuity + `

Keep responses short and conversational. Do not use emojis, asterisks, or
complex formatting: everything you say is spoken aloud.`
}

// OnEnterPrompt is the internal nudge fed to the model right after this
// persona becomes active, before the user speaks again.
func (p *Persona) OnEnterPrompt() string {
	if p.tag == TagCoordinator {
		return "Greet the user warmly and describe the three available modes: learn, quiz, and teach-back."
	}
	return fmt.Sprintf("You are now the %s. Introduce yourself in one or two sentences and continue from the user's last request.", p.DisplayName())
}
