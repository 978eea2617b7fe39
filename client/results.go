package client

import "github.com/luma/keep/protocol"

// Every server-reported failure status is a normal outcome, not a Go
// error. Each operation returns its own small variant set so callers have
// to handle every branch rather than pattern-match status codes by hand.

type RestoreOutcome int

const (
	// Restored means the payload was written verbatim to the destination.
	Restored RestoreOutcome = iota

	// RestoreNotFound means the server does not hold that file. Nothing
	// was written locally.
	RestoreNotFound

	// RestoreServerFault means the server reported a general failure.
	// Nothing was written locally.
	RestoreServerFault
)

type RestoreResult struct {
	Outcome  RestoreOutcome
	Response *protocol.Response
}

type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	DeleteNotFound
	DeleteServerFault
)

type DeleteResult struct {
	Outcome  DeleteOutcome
	Response *protocol.Response
}

type ListOutcome int

const (
	// Listed covers the payload-bearing reply, including a present but
	// empty list. Zero files with status 211 is not the same thing as
	// ERR_NO_FILES.
	Listed ListOutcome = iota

	ListNoFiles
	ListServerFault
)

type ListResult struct {
	Outcome  ListOutcome
	Files    []string
	Response *protocol.Response
}
