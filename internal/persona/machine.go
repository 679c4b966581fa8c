package persona

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voxtutor/internal/catalog"
	"voxtutor/internal/mastery"
	"voxtutor/internal/scoring"
	"voxtutor/internal/types"
)

// transitions is the directed handoff table. Every switch tool a persona
// exposes lands on a target declared here, so a switch can never fail at
// runtime: the table is total by construction and verified in NewMachine.
var transitions = map[Tag][]Tag{
	TagCoordinator: {TagLearn, TagQuiz, TagTeachBack},
	TagLearn:       {TagQuiz, TagTeachBack},
	TagQuiz:        {TagCoordinator, TagLearn, TagTeachBack},
	TagTeachBack:   {TagCoordinator, TagLearn, TagQuiz},
}

// CanTransition reports whether the handoff table allows from -> to.
func CanTransition(from, to Tag) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Machine owns the active persona for one session and executes its tools.
// A Machine is exclusively owned by a single session whose turn loop is
// sequential, so it needs no internal locking; the mastery store it writes
// to is the shared, internally synchronized resource.
type Machine struct {
	catalog *catalog.Catalog
	store   *mastery.Store
	voices  VoiceTags
	active  *Persona
	log     *zap.Logger
}

// NewMachine validates the handoff configuration and returns a machine with
// the coordinator active. A malformed transition table or a switch tool
// pointing outside it is a programming error surfaced here, at construction,
// never mid-conversation.
func NewMachine(cat *catalog.Catalog, store *mastery.Store, voices VoiceTags, log *zap.Logger) (*Machine, error) {
	if cat == nil {
		cat = catalog.Empty()
	}
	if voices == nil {
		voices = DefaultVoices()
	}
	if err := validateTransitions(); err != nil {
		return nil, err
	}

	m := &Machine{
		catalog: cat,
		store:   store,
		voices:  voices,
		log:     log,
	}
	m.active = newPersona(TagCoordinator, voices[TagCoordinator], cat)
	return m, nil
}

func validateTransitions() error {
	valid := make(map[Tag]bool, len(AllTags()))
	for _, tag := range AllTags() {
		valid[tag] = true
		if _, ok := transitions[tag]; !ok {
			return fmt.Errorf("transition table missing state %q", tag)
		}
	}
	for from, targets := range transitions {
		if !valid[from] {
			return fmt.Errorf("transition table has unknown state %q", from)
		}
		for _, to := range targets {
			if !valid[to] {
				return fmt.Errorf("transition %s -> %s targets unknown state", from, to)
			}
			if from == to {
				return fmt.Errorf("transition table declares self-loop on %q", from)
			}
		}
	}
	// Each persona's switch tools must stay inside the table.
	for tag, names := range toolNamesByTag {
		for _, name := range names {
			target, isSwitch := switchToolTarget[name]
			if !isSwitch {
				continue
			}
			if !CanTransition(tag, target) {
				return fmt.Errorf("persona %q exposes %s but table has no %s -> %s", tag, name, tag, target)
			}
		}
	}
	return nil
}

// Active returns the currently active persona.
func (m *Machine) Active() *Persona {
	return m.active
}

// Invoke executes one tool call against the active persona and returns the
// user-facing result text. Switch tools replace the active persona and
// return a handoff status string; lookup misses come back as helpful
// fallback listings, never as errors. The returned bool reports whether a
// handoff occurred, so the turn loop knows to run the new persona's
// on-enter behavior.
func (m *Machine) Invoke(ctx context.Context, call types.ToolCall) (string, bool, error) {
	if !m.active.HasTool(call.Name) {
		return "", false, fmt.Errorf("persona %q has no tool %q", m.active.tag, call.Name)
	}

	if target, ok := switchToolTarget[call.Name]; ok {
		return m.handoff(target), true, nil
	}

	switch call.Name {
	case ToolExplainConcept:
		return m.explainConcept(ctx, call.StringArg("name")), false, nil
	case ToolAskQuestion:
		return m.askQuestion(ctx, call.StringArg("topic")), false, nil
	case ToolEvaluateExplanation:
		return m.evaluateExplanation(ctx, call.StringArg("concept"), call.StringArg("explanation")), false, nil
	case ToolGetWeakestConcepts:
		return m.weakestConcepts(ctx, call.IntArg("limit", 3)), false, nil
	default:
		return "", false, fmt.Errorf("unhandled tool %q", call.Name)
	}
}

// handoff discards the active persona and constructs the target around the
// same catalog reference. Persona-local state dies with the old instance.
func (m *Machine) handoff(to Tag) string {
	from := m.active.tag
	m.active = newPersona(to, m.voices[to], m.catalog)
	m.log.Info("persona handoff",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return fmt.Sprintf("Switching you over to the %s now.", m.active.DisplayName())
}

func (m *Machine) explainConcept(ctx context.Context, name string) string {
	c, errMsg := m.resolveConcept(name)
	if errMsg != "" {
		return errMsg
	}
	if err := m.store.MarkExplained(ctx, c.ID); err != nil {
		// The explanation still goes out; only the counter is lost.
		m.log.Warn("failed to count explanation",
			zap.String("concept", c.ID), zap.Error(err))
	}
	return fmt.Sprintf("%s: %s", c.Title, c.Summary)
}

func (m *Machine) askQuestion(ctx context.Context, topic string) string {
	c, errMsg := m.resolveConcept(topic)
	if errMsg != "" {
		return errMsg
	}
	if err := m.store.MarkQuizzed(ctx, c.ID); err != nil {
		m.log.Warn("failed to count quiz question",
			zap.String("concept", c.ID), zap.Error(err))
	}
	return fmt.Sprintf("Here's a question about %s: %s", c.Title, c.SampleQuestion)
}

func (m *Machine) evaluateExplanation(ctx context.Context, concept, explanation string) string {
	c, errMsg := m.resolveConcept(concept)
	if errMsg != "" {
		return errMsg
	}

	score := scoring.Score(c.Summary, explanation)

	rec, err := m.store.RecordTeachBack(ctx, c.ID, score)
	if err != nil {
		// Feedback still goes to the user; only persistence is lost.
		m.log.Warn("failed to persist teach-back score",
			zap.String("concept", c.ID), zap.Int("score", score), zap.Error(err))
		return fmt.Sprintf(
			"You scored %d out of 100 on %s. For reference: %s (I couldn't save this score, so it won't count toward your progress.)",
			score, c.Title, c.Summary)
	}

	return fmt.Sprintf(
		"You scored %d out of 100 on %s. Your average for this concept is now %.1f over %d attempts. For reference: %s",
		score, c.Title, rec.AvgScore, rec.ScoreCount, c.Summary)
}

func (m *Machine) weakestConcepts(ctx context.Context, limit int) string {
	if limit <= 0 {
		limit = 3
	}
	ranks, err := m.store.WeakestConcepts(ctx, limit)
	if err != nil {
		m.log.Warn("failed to query weakest concepts", zap.Error(err))
		return "I couldn't look up your progress just now. Let's keep going and try again later."
	}
	if len(ranks) == 0 {
		return "There's no teach-back data yet. Explain a concept to me and I'll start tracking your progress."
	}

	var sb strings.Builder
	sb.WriteString("Here's where you could use the most practice: ")
	for i, r := range ranks {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s, averaging %.0f out of 100 over %d attempts", r.Title, r.AvgScore, r.ScoreCount)
	}
	sb.WriteString(".")
	return sb.String()
}

// resolveConcept resolves a user-supplied name with the catalog's exact
// matching first, then a substring convenience on top of it. Anything short
// of a single unambiguous hit returns user-facing fallback text; both the
// miss and the ambiguity list the loaded titles so the user can recover.
func (m *Machine) resolveConcept(name string) (catalog.Concept, string) {
	if c, err := m.catalog.Lookup(name); err == nil {
		return c, ""
	}

	key := strings.ToLower(strings.TrimSpace(name))
	var matches []catalog.Concept
	if key != "" {
		for _, c := range m.catalog.Concepts() {
			if strings.Contains(strings.ToLower(c.ID), key) || strings.Contains(strings.ToLower(c.Title), key) {
				matches = append(matches, c)
			}
		}
	}
	if len(matches) == 1 {
		return matches[0], ""
	}
	if len(matches) > 1 {
		titles := make([]string, len(matches))
		for i, c := range matches {
			titles[i] = c.Title
		}
		return catalog.Concept{}, fmt.Sprintf(
			"A few concepts match %q: %s. Which one did you mean?",
			name, strings.Join(titles, ", "))
	}
	return catalog.Concept{}, m.fallbackListing(name)
}

func (m *Machine) fallbackListing(name string) string {
	titles := m.catalog.Titles()
	if len(titles) == 0 {
		return "I don't have any learning content loaded right now, so I can't help with that topic."
	}
	return fmt.Sprintf("I don't know %q. The concepts I can help with are: %s.",
		name, strings.Join(titles, ", "))
}
