// Package session runs conversations. Each live session owns one persona
// state machine and a strictly sequential turn loop; concurrency exists only
// across sessions, which share the mastery store and catalog.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voxtutor/internal/persona"
	"voxtutor/internal/types"
)

// TurnIO is the voice-layer boundary: user utterances arrive as text and
// replies leave as text tagged with the active persona's voice. The core
// never touches audio.
type TurnIO interface {
	// ReadUtterance blocks until the next user utterance. io.EOF ends the
	// session cleanly.
	ReadUtterance(ctx context.Context) (string, error)
	// Speak renders reply text in the given voice.
	Speak(ctx context.Context, voice, text string) error
}

// Reply is one speakable chunk of output. A single turn can produce several
// replies in different voices when a handoff happens mid-turn.
type Reply struct {
	Voice string
	Text  string
}

// maxToolRounds bounds the tool-call loop within one turn so a confused
// model cannot spin forever.
const maxToolRounds = 6

// Session drives one conversation. Not safe for concurrent use; every
// session runs its own sequential turn loop.
type Session struct {
	id      string
	machine *persona.Machine
	llm     types.LLMClient
	io      TurnIO
	log     *zap.Logger
}

// New creates a session around an already-constructed machine.
func New(machine *persona.Machine, client types.LLMClient, turnIO TurnIO, log *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		machine: machine,
		llm:     client,
		io:      turnIO,
		log:     log.With(zap.String("session", id)),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Machine exposes the persona state machine, mainly for tests and stats.
func (s *Session) Machine() *persona.Machine { return s.machine }

// Run executes the session loop until the input source ends or ctx is
// cancelled. The coordinator greets before the first utterance.
func (s *Session) Run(ctx context.Context) error {
	if err := s.enter(ctx); err != nil {
		return err
	}

	for {
		utterance, err := s.io.ReadUtterance(ctx)
		if errors.Is(err, io.EOF) {
			s.log.Info("session ended by user")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read utterance: %w", err)
		}
		if strings.TrimSpace(utterance) == "" {
			continue
		}

		replies, err := s.Turn(ctx, utterance)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// The conversation survives a failed turn; the user hears a
			// fallback rather than silence.
			s.log.Warn("turn failed", zap.Error(err))
			replies = append(replies, Reply{
				Voice: s.machine.Active().Voice(),
				Text:  "Sorry, I ran into a problem just now. Could you say that again?",
			})
		}
		for _, r := range replies {
			if err := s.io.Speak(ctx, r.Voice, r.Text); err != nil {
				return fmt.Errorf("failed to speak reply: %w", err)
			}
		}
	}
}

// enter runs the active persona's on-enter behavior (the coordinator
// greeting at session start).
func (s *Session) enter(ctx context.Context) error {
	p := s.machine.Active()
	text, err := s.llm.CompleteWithSystem(ctx, p.Instructions(), p.OnEnterPrompt())
	if err != nil {
		s.log.Warn("greeting generation failed, using static greeting", zap.Error(err))
		text = "Hi! I can help you study in three ways: learn mode explains concepts, quiz mode asks questions, and teach-back mode scores your own explanations. Which would you like?"
	}
	return s.io.Speak(ctx, p.Voice(), text)
}

// Turn processes one user utterance to completion: model call, tool
// execution, handoffs, and the follow-up calls they require. Exported so
// orchestration tests can drive turns without a TurnIO.
func (s *Session) Turn(ctx context.Context, utterance string) ([]Reply, error) {
	var replies []Reply
	prompt := utterance

	for round := 0; round < maxToolRounds; round++ {
		p := s.machine.Active()
		resp, err := s.llm.CompleteWithTools(ctx, p.Instructions(), prompt, p.Tools())
		if err != nil {
			return replies, fmt.Errorf("LLM call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Text != "" {
				replies = append(replies, Reply{Voice: p.Voice(), Text: resp.Text})
			}
			return replies, nil
		}

		// Text alongside tool calls is a spoken preamble ("let me check
		// that"); it goes out before the tools run.
		if resp.Text != "" {
			replies = append(replies, Reply{Voice: p.Voice(), Text: resp.Text})
		}

		var results []string
		handedOff := false
		for _, call := range resp.ToolCalls {
			out, didHandoff, err := s.machine.Invoke(ctx, call)
			if err != nil {
				// A hallucinated tool name lands here; tell the model
				// rather than the user.
				s.log.Warn("tool invocation rejected",
					zap.String("tool", call.Name), zap.Error(err))
				results = append(results, fmt.Sprintf("%s: tool not available in this mode", call.Name))
				continue
			}
			if didHandoff {
				// The switch status is surfaced before the new persona's
				// on-enter behavior runs, in the old persona's voice.
				replies = append(replies, Reply{Voice: p.Voice(), Text: out})
				handedOff = true
				break
			}
			results = append(results, out)
		}

		if handedOff {
			prompt = utterance + "\n\n" + s.machine.Active().OnEnterPrompt()
			continue
		}

		prompt = utterance +
			"\n\nTool results:\n" + strings.Join(results, "\n") +
			"\n\nAnswer the user using these results. Do not call the same tool again."
	}

	return replies, fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}
