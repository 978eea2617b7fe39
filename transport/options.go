package transport

import (
	"github.com/luma/keep/storage"
	"go.uber.org/zap"
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on
	Port int

	// Reuseport controls setting SO_REUSEPORT, which is what lets
	// NumListeners accept loops share one address.
	Reuseport bool

	NumListeners int

	Store storage.Store

	Log *zap.Logger
}
