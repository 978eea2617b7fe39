package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	ErrEndOfStream   = errors.New("Stream ended before the full field was delivered")
	ErrUnknownOpCode = errors.New("Unknown operation code could not be parsed")
)

// ReadExact reads exactly n bytes from r, absorbing however many partial
// deliveries it takes. It returns either n bytes or an error, never a
// partial buffer. A closed stream is reported as ErrEndOfStream.
//
// n == 0 succeeds trivially without touching r, because zero-length
// protocol fields (an absent filename) are valid and must not be confused
// with a peer hangup.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)

	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEndOfStream
		}
		return nil, err
	}

	return buf, nil
}

// ReadResponse parses one server response from r.
//
// Every field is mandatory and read byte-exactly, so a stream that ends
// mid-field fails the whole decode with ErrEndOfStream. Payload fields
// are only consumed for the statuses that carry them; anything else,
// including statuses this package has never heard of, ends the response
// at the filename and leaves the rest of the stream untouched.
func ReadResponse(r io.Reader) (*Response, error) {
	version, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	status, err := readUint16(r)
	if err != nil {
		return nil, err
	}

	nameLen, err := readUint16(r)
	if err != nil {
		return nil, err
	}

	rawName, err := ReadExact(r, int(nameLen))
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Version:  version,
		Status:   StatusCode(status),
		Filename: DecodeFilename(rawName),
	}

	if !resp.Status.HasPayload() {
		return resp, nil
	}

	size, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	payload, err := ReadExact(r, int(size))
	if err != nil {
		return nil, err
	}

	resp.Size = size
	resp.Payload = payload

	return resp, nil
}

// ReadRequest parses one client request from r. This is the server half
// of the codec: for Backup it also consumes the file envelope, so the
// returned BackupRequest carries the full file content.
func ReadRequest(r io.Reader) (Request, error) {
	userID, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	version, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	opCode, err := readUint8(r)
	if err != nil {
		return nil, err
	}

	nameLen, err := readUint16(r)
	if err != nil {
		return nil, err
	}

	rawName, err := ReadExact(r, int(nameLen))
	if err != nil {
		return nil, err
	}

	hdr := header{
		userID:   userID,
		version:  version,
		filename: DecodeFilename(rawName),
	}

	switch OpCode(opCode) {
	case OpBackup:
		size, err := readUint32(r)
		if err != nil {
			return nil, err
		}

		payload, err := ReadExact(r, int(size))
		if err != nil {
			return nil, err
		}

		return &BackupRequest{header: hdr, Size: size, Payload: payload}, nil

	case OpRestore:
		return &RestoreRequest{header: hdr}, nil

	case OpDelete:
		return &DeleteRequest{header: hdr}, nil

	case OpList:
		return &ListRequest{header: hdr}, nil

	default:
		return nil, fmt.Errorf("Failed to parse op code %d: %w", opCode, ErrUnknownOpCode)
	}
}

// DecodeFilename decodes wire filename bytes as ASCII, replacing any byte
// outside the ASCII range rather than rejecting it. The protocol does not
// guarantee the peer only sends valid ASCII, and a bad name must never
// abort parsing an otherwise well-framed message.
func DecodeFilename(raw []byte) string {
	var b strings.Builder

	for _, c := range raw {
		if c < utf8.RuneSelf {
			b.WriteByte(c)
		} else {
			b.WriteRune(utf8.RuneError)
		}
	}

	return b.String()
}

func readUint8(r io.Reader) (byte, error) {
	buf, err := ReadExact(r, 1)
	if err != nil {
		return 0, err
	}

	return buf[0], nil
}

func readUint16(r io.Reader) (uint16, error) {
	buf, err := ReadExact(r, 2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(buf), nil
}

func readUint32(r io.Reader) (uint32, error) {
	buf, err := ReadExact(r, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf), nil
}
