// Package transport defines the contract between the protocol layer and a
// physical authenticator link. Implementations own framing, fragmentation
// and retry; the protocol layer hands over one fully encoded message and
// expects one full response back.
package transport

import "io"

// Transport is a blocking request/response channel to an authenticator.
// SendReceive must not return a partial response: implementations buffer
// until the authenticator's message is complete.
type Transport interface {
	io.Closer

	SendReceive(request []byte) ([]byte, error)
}
