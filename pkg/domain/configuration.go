package domain

// Configuration is the static description of one story, produced by the authoring
// backend and loaded once per bot version. It is never mutated by the engine.
type Configuration struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	MainIntent       string   `json:"main_intent,omitempty" yaml:"main_intent,omitempty" mapstructure:"main_intent"`
	PrimaryIntents   []string `json:"primary_intents,omitempty" yaml:"primary_intents,omitempty" mapstructure:"primary_intents"`
	SecondaryIntents []string `json:"secondary_intents,omitempty" yaml:"secondary_intents,omitempty" mapstructure:"secondary_intents"`
	Triggers         []string `json:"triggers,omitempty" yaml:"triggers,omitempty" mapstructure:"triggers"`

	StateMachine    State            `json:"state_machine" yaml:"state_machine" mapstructure:"state_machine"`
	Contexts        []Context        `json:"contexts,omitempty" yaml:"contexts,omitempty" mapstructure:"contexts"`
	Actions         []Action         `json:"actions" yaml:"actions" mapstructure:"actions"`
	IntentsContexts []IntentContexts `json:"intents_contexts,omitempty" yaml:"intents_contexts,omitempty" mapstructure:"intents_contexts"`

	Unknown  UnknownConfiguration `json:"unknown,omitempty" yaml:"unknown,omitempty" mapstructure:"unknown"`
	Settings StorySettings        `json:"settings,omitempty" yaml:"settings,omitempty" mapstructure:"settings"`

	// Debug makes the processor report each action's contexts as plain text messages.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" mapstructure:"debug"`
}

// Intents returns every declared intent name: main, primary then secondary.
func (c Configuration) Intents() []string {
	out := make([]string, 0, 1+len(c.PrimaryIntents)+len(c.SecondaryIntents))
	if c.MainIntent != "" {
		out = append(out, c.MainIntent)
	}
	out = append(out, c.PrimaryIntents...)
	out = append(out, c.SecondaryIntents...)
	return out
}

// Action is the business step bound to the state of the same name.
type Action struct {
	// Name is the id of the state the action is bound to.
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// AnswerID is the label sent to the user when the action runs.
	AnswerID string `json:"answer_id,omitempty" yaml:"answer_id,omitempty" mapstructure:"answer_id"`

	// Handler is the name of the business logic invoked through the handler repository.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty" mapstructure:"handler"`

	// Trigger is fired once the action has run, moving the conversation across branches.
	Trigger string `json:"trigger,omitempty" yaml:"trigger,omitempty" mapstructure:"trigger"`

	InputContextNames  []string `json:"input_context_names,omitempty" yaml:"input_context_names,omitempty" mapstructure:"input_context_names"`
	OutputContextNames []string `json:"output_context_names,omitempty" yaml:"output_context_names,omitempty" mapstructure:"output_context_names"`

	// Final marks the action as terminal for the conversation.
	Final bool `json:"final,omitempty" yaml:"final,omitempty" mapstructure:"final"`

	// Repeatable allows the action to run more than once in the same turn chain.
	Repeatable bool `json:"repeatable,omitempty" yaml:"repeatable,omitempty" mapstructure:"repeatable"`

	// TargetStory hands the conversation over to another story once the action has run.
	TargetStory string `json:"target_story,omitempty" yaml:"target_story,omitempty" mapstructure:"target_story"`
}

// IsSilent reports whether the action runs a handler and continues without waiting
// for the user.
func (a Action) IsSilent() bool {
	return a.Handler != ""
}

// Produces reports whether the action declares the context as output.
func (a Action) Produces(contextName string) bool {
	for _, name := range a.OutputContextNames {
		if name == contextName {
			return true
		}
	}
	return false
}

// Context declares a named value of the story.
type Context struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// EntityRole maps an entity extracted by the NLU onto this context.
	EntityRole string `json:"entity_role,omitempty" yaml:"entity_role,omitempty" mapstructure:"entity_role"`

	// Type optionally constrains values supplied by user actions ("string", "int", "float", "bool").
	Type string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}

// IntentContexts lists, for a secondary intent, the contexts it answers depending on
// the action that ran last.
type IntentContexts struct {
	Intent       string        `json:"intent" yaml:"intent" mapstructure:"intent"`
	Associations []Association `json:"associations" yaml:"associations" mapstructure:"associations"`
}

// Association binds contexts to the action asking for them.
type Association struct {
	Action   string   `json:"action" yaml:"action" mapstructure:"action"`
	Contexts []string `json:"contexts" yaml:"contexts" mapstructure:"contexts"`
}

// UnknownConfiguration drives recovery when input cannot be classified.
type UnknownConfiguration struct {
	// Intents are the intent names treated as unknown. Defaults to UnknownIntent.
	Intents []string              `json:"intents,omitempty" yaml:"intents,omitempty" mapstructure:"intents"`
	Answers []UnknownAnswerConfig `json:"answers,omitempty" yaml:"answers,omitempty" mapstructure:"answers"`
}

// IsUnknown reports whether the intent name is one of the unknown intents.
func (u UnknownConfiguration) IsUnknown(intent string) bool {
	if len(u.Intents) == 0 {
		return intent == UnknownIntent
	}
	for _, name := range u.Intents {
		if name == intent {
			return true
		}
	}
	return false
}

// UnknownAnswerConfig is the fallback used when an unknown intent follows Action.
type UnknownAnswerConfig struct {
	Action string `json:"action" yaml:"action" mapstructure:"action"`

	// AnswerID is the fallback label. Text is used when no label is set.
	AnswerID string `json:"answer_id,omitempty" yaml:"answer_id,omitempty" mapstructure:"answer_id"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`

	// RetryNb is the number of fallbacks sent before the exit path is taken.
	RetryNb int `json:"retry_nb" yaml:"retry_nb" mapstructure:"retry_nb"`

	// ExitAction is processed as the primary objective once retries are exhausted.
	ExitAction string `json:"exit_action,omitempty" yaml:"exit_action,omitempty" mapstructure:"exit_action"`
}

// StorySettings holds the story-wide repetition guard.
type StorySettings struct {
	// RepetitionNb bounds how many times the same awaiting action is asked in a row.
	RepetitionNb int `json:"repetition_nb,omitempty" yaml:"repetition_nb,omitempty" mapstructure:"repetition_nb"`

	// RedirectStory receives the conversation when the bound is exceeded.
	RedirectStory string `json:"redirect_story,omitempty" yaml:"redirect_story,omitempty" mapstructure:"redirect_story"`
}

// Repetitions returns RepetitionNb or its default.
func (s StorySettings) Repetitions() int {
	if s.RepetitionNb <= 0 {
		return DefaultRepetitionNb
	}
	return s.RepetitionNb
}
