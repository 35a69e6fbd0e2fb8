package models

// BackendKind enumerates reasoning backend variants.
type BackendKind string

const (
	// BackendRemote is a hosted completion API reached with credentials.
	BackendRemote BackendKind = "remote"
	// BackendLocal is an on-host inference endpoint.
	BackendLocal BackendKind = "local"
)

// ModelSpec is one entry in the fallback chain. The chain order is the
// sole priority signal: entries are tried strictly in order and the
// first usable answer wins.
type ModelSpec struct {
	Kind BackendKind `yaml:"kind"`
	Name string      `yaml:"name"`
}
