package persona

import (
	"voxtutor/internal/types"
)

// Tool names exposed to the turn loop.
const (
	ToolSwitchToCoordinator = "switch_to_coordinator"
	ToolSwitchToLearn       = "switch_to_learn"
	ToolSwitchToQuiz        = "switch_to_quiz"
	ToolSwitchToTeachBack   = "switch_to_teach_back"
	ToolExplainConcept      = "explain_concept"
	ToolAskQuestion         = "ask_question"
	ToolEvaluateExplanation = "evaluate_explanation"
	ToolGetWeakestConcepts  = "get_weakest_concepts"
)

// switchToolTarget maps each switch tool to the persona it activates.
var switchToolTarget = map[string]Tag{
	ToolSwitchToCoordinator: TagCoordinator,
	ToolSwitchToLearn:       TagLearn,
	ToolSwitchToQuiz:        TagQuiz,
	ToolSwitchToTeachBack:   TagTeachBack,
}

// toolNamesByTag declares each persona's tool surface. Switch tools listed
// here must agree with the transition table; NewMachine verifies that at
// construction.
var toolNamesByTag = map[Tag][]string{
	TagCoordinator: {
		ToolSwitchToLearn,
		ToolSwitchToQuiz,
		ToolSwitchToTeachBack,
	},
	TagLearn: {
		ToolExplainConcept,
		ToolSwitchToQuiz,
		ToolSwitchToTeachBack,
	},
	TagQuiz: {
		ToolAskQuestion,
		ToolSwitchToCoordinator,
		ToolSwitchToLearn,
		ToolSwitchToTeachBack,
	},
	TagTeachBack: {
		ToolEvaluateExplanation,
		ToolGetWeakestConcepts,
		ToolSwitchToCoordinator,
		ToolSwitchToLearn,
		ToolSwitchToQuiz,
	},
}

// toolDefinitions holds the schema for every tool in the system.
var toolDefinitions = map[string]types.ToolDefinition{
	ToolSwitchToCoordinator: {
		Name:        ToolSwitchToCoordinator,
		Description: "Hand the conversation back to the coordinator so the user can pick a different mode.",
		InputSchema: objectSchema(nil, nil),
	},
	ToolSwitchToLearn: {
		Name:        ToolSwitchToLearn,
		Description: "Hand the conversation to the learning tutor, who explains concepts.",
		InputSchema: objectSchema(nil, nil),
	},
	ToolSwitchToQuiz: {
		Name:        ToolSwitchToQuiz,
		Description: "Hand the conversation to the quiz tutor, who asks questions to test knowledge.",
		InputSchema: objectSchema(nil, nil),
	},
	ToolSwitchToTeachBack: {
		Name:        ToolSwitchToTeachBack,
		Description: "Hand the conversation to the teach-back coach, who scores the user's own explanations.",
		InputSchema: objectSchema(nil, nil),
	},
	ToolExplainConcept: {
		Name:        ToolExplainConcept,
		Description: "Fetch the reference explanation for a concept by name or id.",
		InputSchema: objectSchema(map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Concept name or id the user asked about",
			},
		}, []string{"name"}),
	},
	ToolAskQuestion: {
		Name:        ToolAskQuestion,
		Description: "Fetch a quiz question for a topic by name or id.",
		InputSchema: objectSchema(map[string]interface{}{
			"topic": map[string]interface{}{
				"type":        "string",
				"description": "Topic name or id to quiz the user on",
			},
		}, []string{"topic"}),
	},
	ToolEvaluateExplanation: {
		Name:        ToolEvaluateExplanation,
		Description: "Score the user's own explanation of a concept against the reference summary and record the result.",
		InputSchema: objectSchema(map[string]interface{}{
			"concept": map[string]interface{}{
				"type":        "string",
				"description": "Concept name or id the user explained",
			},
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "The user's explanation, verbatim",
			},
		}, []string{"concept", "explanation"}),
	},
	ToolGetWeakestConcepts: {
		Name:        ToolGetWeakestConcepts,
		Description: "List the concepts the user has scored lowest on so far.",
		InputSchema: objectSchema(map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of concepts to return (default 3)",
			},
		}, nil),
	},
}

// Tools returns the persona's declared tool surface in stable order.
func (p *Persona) Tools() []types.ToolDefinition {
	names := toolNamesByTag[p.tag]
	defs := make([]types.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, toolDefinitions[name])
	}
	return defs
}

// HasTool reports whether the persona exposes the named tool.
func (p *Persona) HasTool(name string) bool {
	for _, n := range toolNamesByTag[p.tag] {
		if n == name {
			return true
		}
	}
	return false
}

func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
