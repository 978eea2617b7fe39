package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luma/keep/protocol"
)

var (
	ErrNotConnected     = errors.New("Session is not connected")
	ErrAlreadyConnected = errors.New("Session is already connected")
	ErrFileTooLarge     = errors.New("File does not fit the 32-bit size field")

	// ErrMissingPayload means the server claimed success but sent no
	// payload where one is mandated. Writing an empty file on that basis
	// would silently corrupt the restore, so it fails loudly instead.
	ErrMissingPayload = errors.New("Server response is missing a mandatory payload")
)

// Session owns one connection to a backup server and runs one exchange at
// a time over it: encode and send a request, then decode exactly one
// response. There is no pipelining and no background receiver; concurrent
// use from multiple goroutines must be serialized by the caller.
//
// A failed exchange does not invalidate the connection unless the failure
// was the transport itself, in which case the caller closes the session.
type Session struct {
	identity Identity

	conn net.Conn

	log *zap.Logger
}

func New(log *zap.Logger) *Session {
	return &Session{
		identity: NewIdentity(),
		log:      log,
	}
}

func (s *Session) Identity() Identity {
	return s.identity
}

// Connect dials the server. Connecting an already connected session is a
// programming error and is reported as one rather than silently redialing.
func (s *Session) Connect(ctx context.Context, addr string) error {
	if s.conn != nil {
		return ErrAlreadyConnected
	}

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("Failed to connect to %s: %w", addr, err)
	}

	s.conn = conn
	s.log.Info("Connected", zap.String("addr", addr), zap.Uint32("userID", s.identity.UserID))

	return nil
}

func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil

	return err
}

// Backup uploads the file at path under its own name. The response is
// returned verbatim: the server's status set never attaches a payload to
// a backup reply, but the decoder tolerates one either way.
func (s *Session) Backup(ctx context.Context, path string) (*protocol.Response, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}

	defer s.applyDeadline(ctx)()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for backup: %w", path, err)
	}
	defer f.Close()

	// The size is measured once, before any bytes are streamed. The file
	// must not change size for the duration of the call.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("Failed to stat %s: %w", path, err)
	}

	if info.Size() > math.MaxUint32 {
		return nil, fmt.Errorf("Failed to back up %s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
	}

	err = protocol.WriteBackup(s.conn, s.identity.UserID, s.identity.Version, path, uint32(info.Size()), f)
	if err != nil {
		return nil, err
	}

	resp, err := protocol.ReadResponse(s.conn)
	if err != nil {
		return nil, err
	}

	s.log.Info("Backup exchange complete",
		zap.String("file", path),
		zap.String("status", resp.Status.String()))

	return resp, nil
}

// Restore fetches name from the server and writes the payload verbatim to
// dest. Server-side not-found and general failure are reported as
// outcomes, never as errors; local write failures are errors.
func (s *Session) Restore(ctx context.Context, name, dest string) (RestoreResult, error) {
	if s.conn == nil {
		return RestoreResult{}, ErrNotConnected
	}

	defer s.applyDeadline(ctx)()

	err := protocol.WriteRequest(s.conn, s.identity.UserID, s.identity.Version, protocol.OpRestore, name)
	if err != nil {
		return RestoreResult{}, err
	}

	resp, err := protocol.ReadResponse(s.conn)
	if err != nil {
		return RestoreResult{}, err
	}

	result := RestoreResult{Response: resp}

	switch resp.Status {
	case protocol.StatusErrFileNotFound:
		result.Outcome = RestoreNotFound
		return result, nil

	case protocol.StatusErrGeneral:
		result.Outcome = RestoreServerFault
		return result, nil
	}

	if !resp.HasPayload() {
		return RestoreResult{}, fmt.Errorf("Restore of %s reported status %d: %w",
			name, resp.Status, ErrMissingPayload)
	}

	if err := os.WriteFile(dest, resp.Payload, 0644); err != nil {
		return RestoreResult{}, fmt.Errorf("Failed to write restored file %s: %w", dest, err)
	}

	s.log.Info("Restored file",
		zap.String("file", name),
		zap.String("dest", dest),
		zap.Uint32("size", resp.Size))

	result.Outcome = Restored
	return result, nil
}

// Delete removes name from the server. Nothing is ever written locally.
func (s *Session) Delete(ctx context.Context, name string) (DeleteResult, error) {
	if s.conn == nil {
		return DeleteResult{}, ErrNotConnected
	}

	defer s.applyDeadline(ctx)()

	err := protocol.WriteRequest(s.conn, s.identity.UserID, s.identity.Version, protocol.OpDelete, name)
	if err != nil {
		return DeleteResult{}, err
	}

	resp, err := protocol.ReadResponse(s.conn)
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{Response: resp}

	switch resp.Status {
	case protocol.StatusErrFileNotFound:
		result.Outcome = DeleteNotFound
	case protocol.StatusErrGeneral:
		result.Outcome = DeleteServerFault
	default:
		result.Outcome = Deleted
	}

	return result, nil
}

// List fetches the names of every file the server holds for this user.
func (s *Session) List(ctx context.Context) (ListResult, error) {
	if s.conn == nil {
		return ListResult{}, ErrNotConnected
	}

	defer s.applyDeadline(ctx)()

	err := protocol.WriteRequest(s.conn, s.identity.UserID, s.identity.Version, protocol.OpList, "")
	if err != nil {
		return ListResult{}, err
	}

	resp, err := protocol.ReadResponse(s.conn)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Response: resp}

	switch resp.Status {
	case protocol.StatusErrNoFiles:
		result.Outcome = ListNoFiles
		return result, nil

	case protocol.StatusErrGeneral:
		result.Outcome = ListServerFault
		return result, nil
	}

	if !resp.HasPayload() {
		return ListResult{}, fmt.Errorf("List reported status %d: %w", resp.Status, ErrMissingPayload)
	}

	result.Outcome = Listed
	result.Files = splitFileList(resp.Payload)

	return result, nil
}

// applyDeadline pushes any context deadline down onto the socket. The
// exchange itself has no cancellation point mid-flight, so a deadline on
// the connection is the only way a caller-imposed timeout can bite.
func (s *Session) applyDeadline(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}
	}

	if err := s.conn.SetDeadline(deadline); err != nil {
		s.log.Warn("Failed to set connection deadline", zap.Error(err))
		return func() {}
	}

	return func() {
		if err := s.conn.SetDeadline(time.Time{}); err != nil {
			s.log.Warn("Failed to clear connection deadline", zap.Error(err))
		}
	}
}

func splitFileList(payload []byte) []string {
	files := make([]string, 0)

	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}

	return files
}
