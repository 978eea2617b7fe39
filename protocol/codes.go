package protocol

// Version is the protocol revision sent in every request header. It is
// transmitted but never negotiated.
const Version byte = 1

// ChunkSize bounds the reads used to stream file content onto the wire.
const ChunkSize = 4096

type OpCode byte

const (
	OpBackup  OpCode = 100
	OpRestore OpCode = 200
	OpDelete  OpCode = 201
	OpList    OpCode = 202
)

func (o OpCode) String() string {
	switch o {
	case OpBackup:
		return "BACKUP"
	case OpRestore:
		return "RESTORE"
	case OpDelete:
		return "DELETE"
	case OpList:
		return "LIST"
	default:
		return "UNKNOWN"
	}
}

type StatusCode uint16

const (
	StatusFound     StatusCode = 210
	StatusFileList  StatusCode = 211
	StatusNoPayload StatusCode = 212

	StatusErrFileNotFound StatusCode = 1001
	StatusErrNoFiles      StatusCode = 1002
	StatusErrGeneral      StatusCode = 1003
)

// HasPayload reports whether a response with this status is followed on
// the wire by a size field and payload bytes. Only the fixed successes
// below carry one; every other status, known or not, does not.
func (s StatusCode) HasPayload() bool {
	return s == StatusFound || s == StatusFileList
}

func (s StatusCode) String() string {
	switch s {
	case StatusFound:
		return "FOUND"
	case StatusFileList:
		return "FILE_LIST"
	case StatusNoPayload:
		return "OK"
	case StatusErrFileNotFound:
		return "ERR_FILE_NOT_FOUND"
	case StatusErrNoFiles:
		return "ERR_NO_FILES"
	case StatusErrGeneral:
		return "ERR_GENERAL"
	default:
		return "UNKNOWN"
	}
}
