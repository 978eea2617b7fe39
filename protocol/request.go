package protocol

// header carries the fields common to every decoded request.
type header struct {
	userID   uint32
	version  byte
	filename string
}

type Request interface {
	GetUserID() uint32
	GetVersion() byte
	GetOpCode() OpCode
	GetFilename() string
}

func (h *header) GetUserID() uint32 {
	return h.userID
}

func (h *header) GetVersion() byte {
	return h.version
}

func (h *header) GetFilename() string {
	return h.filename
}

type BackupRequest struct {
	header

	// Size is the file size announced by the client before streaming.
	Size uint32

	// Payload is the full file content, exactly Size bytes.
	Payload []byte
}

func (b *BackupRequest) GetOpCode() OpCode {
	return OpBackup
}

type RestoreRequest struct {
	header
}

func (r *RestoreRequest) GetOpCode() OpCode {
	return OpRestore
}

type DeleteRequest struct {
	header
}

func (d *DeleteRequest) GetOpCode() OpCode {
	return OpDelete
}

type ListRequest struct {
	header
}

func (l *ListRequest) GetOpCode() OpCode {
	return OpList
}

var _ Request = (*BackupRequest)(nil)
var _ Request = (*RestoreRequest)(nil)
var _ Request = (*DeleteRequest)(nil)
var _ Request = (*ListRequest)(nil)
