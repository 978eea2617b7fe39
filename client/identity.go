package client

import (
	"math/rand"

	"github.com/luma/keep/protocol"
)

// Identity is the client-generated identity sent in every request header.
// The user id is random, drawn once, and immutable for the life of the
// session. It is an identifier, not a credential.
type Identity struct {
	UserID  uint32
	Version byte
}

func NewIdentity() Identity {
	return Identity{
		UserID:  rand.Uint32(),
		Version: protocol.Version,
	}
}
