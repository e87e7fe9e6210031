package types

// Profile is what a participant remembers between runs of the CLI.
type Profile struct {
	Relay    string   `json:"relay"`
	Username Username `json:"username"`
	LastUsed int64    `json:"last_used"`
}
