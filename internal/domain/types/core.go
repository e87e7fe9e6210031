package types

// Username is the display name a participant registers with the relay.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for a key matrix presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// RunID identifies one key-agreement attempt on the relay.
type RunID string

// String returns the string form of the run identifier.
func (id RunID) String() string { return string(id) }
