package ir

// Version constants for stored output and the engine.
const (
	// SchemaVersion is the version of the stored trait layout.
	SchemaVersion = "1"

	// EngineVersion is the traiter engine version, recorded on every run.
	EngineVersion = "0.1.0"
)
