package ir

// Version constants for the compiled rule IR and the engine.
const (
	// IRVersion is the rule IR schema version recorded with every firing.
	IRVersion = "1"

	// EngineVersion is the evrule engine version.
	EngineVersion = "0.1.0"
)
