package protocol

type Response struct {
	Version  byte
	Status   StatusCode
	Filename string

	// Size is the payload length announced by the server. It is only
	// meaningful when HasPayload() is true.
	Size uint32

	// Payload is nil when the status carried no payload fields at all.
	// A present-but-empty payload is a non-nil zero length slice, which
	// is a different thing: a list with zero files is not ERR_NO_FILES.
	Payload []byte
}

// HasPayload reports whether payload fields were present on the wire.
func (r *Response) HasPayload() bool {
	return r.Payload != nil
}
