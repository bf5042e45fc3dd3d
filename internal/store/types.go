package store

// Firing is one recorded rule set firing.
type Firing struct {
	ID            string           `json:"id"`
	ChainID       string           `json:"chain_id"`
	Seq           int64            `json:"seq"`
	ParentSeq     int64            `json:"parent_seq,omitempty"`
	Kind          string           `json:"kind"`
	Host          string           `json:"host,omitempty"`
	RuleSet       string           `json:"ruleset"`
	RuleSetHash   string           `json:"ruleset_hash,omitempty"`
	Participants  map[string]int64 `json:"participants"`
	Outcome       string           `json:"outcome"`
	AbortedAt     string           `json:"aborted_at,omitempty"`
	Error         string           `json:"error,omitempty"`
	Effects       []Effect         `json:"effects,omitempty"`
	EngineVersion string           `json:"engine_version"`
	IRVersion     string           `json:"ir_version"`
}

// Effect is one recorded effect invocation.
type Effect struct {
	Component int    `json:"component"`
	Via       string `json:"via"`
	Target    int64  `json:"target"`
	Error     string `json:"error,omitempty"`
}
