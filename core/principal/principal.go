package principal

// Principal is the per-request identity every policy decision is made against.
// It is ephemeral and derived from the caller's credential.
type Principal struct {
	ID            string
	DisplayName   string
	Email         string
	Authenticated bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}
