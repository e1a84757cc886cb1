package domain

// Identity is the authenticated caller of a request. It is never persisted.
type Identity struct {
	Subject string
	Email   string
	Role    string
}
