package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

var (
	ErrFilenameNotASCII = errors.New("Filename is not representable in ASCII")
	ErrFilenameTooLong  = errors.New("Filename does not fit the 16-bit length field")
)

// EncodeHeader builds the request header: user id (4B LE), version (1B),
// op code (1B), name length (2B LE), then the raw ASCII filename with no
// terminator. Validation happens before any byte is produced, so a bad
// filename means zero bytes ever reach the wire.
func EncodeHeader(userID uint32, version byte, op OpCode, filename string) ([]byte, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	b := make([]byte, 8+len(filename))
	binary.LittleEndian.PutUint32(b[0:4], userID)
	b[4] = version
	b[5] = byte(op)
	binary.LittleEndian.PutUint16(b[6:8], uint16(len(filename)))
	copy(b[8:], filename)

	return b, nil
}

// WriteRequest frames and sends a payload-less request (Restore, Delete,
// List). Backup requests go through WriteBackup instead.
func WriteRequest(w io.Writer, userID uint32, version byte, op OpCode, filename string) error {
	b, err := EncodeHeader(userID, version, op, filename)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// WriteBackup sends a Backup request: the header, a 4 byte little-endian
// file size, then the body streamed in ChunkSize reads until EOF.
//
// The size is whatever the caller measured before the call; if the body
// shrinks or grows while streaming the exchange is already off the rails,
// so the source file must not change underneath us.
func WriteBackup(w io.Writer, userID uint32, version byte, filename string, size uint32, body io.Reader) error {
	b, err := EncodeHeader(userID, version, OpBackup, filename)
	if err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("Failed to send backup header: %w", err)
	}

	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], size)

	if _, err := w.Write(sizeField[:]); err != nil {
		return fmt.Errorf("Failed to send file size: %w", err)
	}

	if _, err := io.CopyBuffer(w, body, make([]byte, ChunkSize)); err != nil {
		return fmt.Errorf("Failed to stream file content: %w", err)
	}

	return nil
}

// WriteStatus sends a response that carries no payload fields.
func WriteStatus(w io.Writer, version byte, status StatusCode, filename string) error {
	b, err := encodeResponseHeader(version, status, filename)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// WritePayload sends a payload-bearing response: the response header,
// a 4 byte little-endian size, then the payload itself. An empty payload
// is valid and still emits the size field, which is how a zero-file list
// stays distinguishable from ERR_NO_FILES.
func WritePayload(w io.Writer, version byte, status StatusCode, filename string, payload []byte) error {
	b, err := encodeResponseHeader(version, status, filename)
	if err != nil {
		return err
	}

	b = append(b, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(b[len(b)-4:], uint32(len(payload)))
	b = append(b, payload...)

	_, err = w.Write(b)
	return err
}

func encodeResponseHeader(version byte, status StatusCode, filename string) ([]byte, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	b := make([]byte, 5+len(filename))
	b[0] = version
	binary.LittleEndian.PutUint16(b[1:3], uint16(status))
	binary.LittleEndian.PutUint16(b[3:5], uint16(len(filename)))
	copy(b[5:], filename)

	return b, nil
}

func validateFilename(filename string) error {
	if len(filename) > math.MaxUint16 {
		return fmt.Errorf("Failed to encode %q (%d bytes): %w",
			filename[:32]+"...", len(filename), ErrFilenameTooLong)
	}

	for i := 0; i < len(filename); i++ {
		if filename[i] >= utf8.RuneSelf {
			return fmt.Errorf("Failed to encode %q: %w", filename, ErrFilenameNotASCII)
		}
	}

	return nil
}
