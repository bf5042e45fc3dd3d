package harness

// TraceEffect is one effect invocation in a trace.
type TraceEffect struct {
	Component int    `json:"component"`
	Via       string `json:"via"`
	Target    int64  `json:"target"`
	Error     string `json:"error,omitempty"`
}

// TraceEvent is one rule set firing in a trace.
type TraceEvent struct {
	Step         int              `json:"step"`
	ChainID      string           `json:"chain"`
	Seq          int64            `json:"seq"`
	ParentSeq    int64            `json:"parent,omitempty"`
	Kind         string           `json:"kind"`
	Host         string           `json:"host,omitempty"`
	RuleSet      string           `json:"ruleset"`
	Participants map[string]int64 `json:"participants"`
	Outcome      string           `json:"outcome"`
	AbortedAt    string           `json:"aborted_at,omitempty"`
	Error        string           `json:"error,omitempty"`
	Effects      []TraceEffect    `json:"effects,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all firings in the order they started.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// World is the final arena snapshot.
	World map[string]any `json:"world,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
