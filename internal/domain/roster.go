package domain

// RosterEntry is one row of the external roster. It is re-read on every
// pull and never stored.
type RosterEntry struct {
	Handle      string `yaml:"handle" json:"handle"`
	DisplayName string `yaml:"name" json:"name,omitempty"`
}
