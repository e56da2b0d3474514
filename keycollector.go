package seckey

// PINPrompt is the context handed to the key collector each time the session
// needs a PIN from the user.
type PINPrompt struct {
	// RetriesRemaining is the number of attempts the authenticator will
	// still accept before locking out.
	RetriesRemaining uint
	// LastAttemptInvalid is true when a previous PIN in this verification
	// pass was rejected.
	LastAttemptInvalid bool
	// RPID is the relying party the verification is scoped to, if any.
	RPID string
}

// KeyCollector is the synchronous human-interaction contract. The session
// calls it mid-protocol and blocks on the answer; returning ok == false
// declines the prompt and aborts the in-flight operation with
// ErrUserCancelled.
type KeyCollector interface {
	CollectPIN(prompt PINPrompt) (pin string, ok bool)
}

// KeyCollectorFunc adapts a function to the KeyCollector interface.
type KeyCollectorFunc func(prompt PINPrompt) (string, bool)

func (f KeyCollectorFunc) CollectPIN(prompt PINPrompt) (string, bool) {
	return f(prompt)
}
