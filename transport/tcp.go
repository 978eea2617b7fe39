package transport

import (
	"context"
	"errors"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/keep/protocol"
	"github.com/luma/keep/storage"
)

// ServerVersion is sent in every response header.
const ServerVersion byte = 1

// TCP is the backup server's listener stack. Each accepted connection is
// served by one goroutine running a strict request-then-response loop:
// the protocol has no pipelining and no server push, so there is nothing
// to multiplex.
type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr string

	numListeners int
	reuseport    bool
	listeners    []*TCPListener

	store storage.Store

	log *zap.Logger
}

func NewTCP(options Options) *TCP {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		numListeners: numListeners,
		reuseport:    options.Reuseport,
		listeners:    make([]*TCPListener, 0, numListeners),
		store:        options.Store,
		log:          options.Log,
	}
}

func (t *TCP) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	t.cancel = cancel

	t.log.Info("Starting tcp listeners", zap.Int("count", t.numListeners))

	for i := 0; i < t.numListeners; i++ {
		t.startListener(ctx, t.addr)
	}

	return nil
}

func (t *TCP) Store() storage.Store {
	return t.store
}

func (t *TCP) startListener(ctx context.Context, addr string) {
	t.stopWaiter.Add(1)
	listener := NewTCPListener(
		ctx,
		addr,
		t.reuseport,
		t.store,
		t.log.Named("listener").With(zap.Int("listener", len(t.listeners))),
	)

	t.listeners = append(t.listeners, &listener)

	go func() {
		defer t.stopWaiter.Done()

		if err := listener.Listen(); err != nil {
			t.log.Error("Failed to listen", zap.Error(err))
		}
	}()
}

// Close immediately closes all active listeners and connections.
func (t *TCP) Close() (err error) {
	t.log.Info("Stopping TCP server")
	t.cancel()

	for _, listener := range t.listeners {
		err = multierr.Append(err, listener.Close())
	}

	t.stopWaiter.Wait()
	t.log.Info("Listeners stopped")

	return err
}

type TCPListener struct {
	ctx context.Context

	addr      string
	reuseport bool
	log       *zap.Logger

	mu          sync.Mutex
	activeConns map[*TCPConn]struct{}

	store storage.Store
}

func NewTCPListener(
	ctx context.Context,
	addr string,
	reuse bool,
	store storage.Store,
	log *zap.Logger,
) TCPListener {
	return TCPListener{
		ctx:         ctx,
		addr:        addr,
		reuseport:   reuse,
		activeConns: make(map[*TCPConn]struct{}),
		store:       store,
		log:         log,
	}
}

func (t *TCPListener) Close() (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for conn := range t.activeConns {
		err = multierr.Append(err, conn.Close())
		delete(t.activeConns, conn)
	}

	return err
}

func (t *TCPListener) Listen() error {
	listener, err := t.listen()
	if err != nil {
		return err
	}

	defer listener.Close()

	var connWaiter sync.WaitGroup

	go func() {
		<-t.ctx.Done()

		t.log.Info("Closing listener")
		if err := listener.Close(); err != nil {
			t.log.Warn("TCP Listener did not close cleanly", zap.Error(err))
		}
	}()

	for {
		select {
		case <-t.ctx.Done():
			t.log.Info("Stopped accepting new connections")
			connWaiter.Wait()

			t.log.Info("Listener stopped")
			return nil

		default:
			conn, err := listener.Accept()
			if err != nil {
				netOpError := new(net.OpError)

				if errors.As(err, &netOpError) && strings.Contains(netOpError.Unwrap().Error(), "use of closed network connection") {
					// The listener was closed while we were waiting for
					// new connections, that's fine.
					connWaiter.Wait()
					return nil
				}

				return err
			}

			tcpConn := NewTCPConn(t.ctx, conn, t.store, t.log.Named("conn"))
			t.addConn(tcpConn)

			connWaiter.Add(1)
			go func() {
				defer connWaiter.Done()
				defer t.removeConn(tcpConn)

				tcpConn.Serve()
			}()
		}
	}
}

func (t *TCPListener) listen() (net.Listener, error) {
	if t.reuseport {
		return reuseport.Listen("tcp", t.addr)
	}

	return net.Listen("tcp", t.addr)
}

func (t *TCPListener) addConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeConns[conn] = struct{}{}
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}

type TCPConn struct {
	ctx context.Context

	conn  net.Conn
	store storage.Store

	closeOnce sync.Once

	log *zap.Logger
}

func NewTCPConn(
	ctx context.Context,
	conn net.Conn,
	store storage.Store,
	log *zap.Logger,
) *TCPConn {
	return &TCPConn{
		ctx:   ctx,
		conn:  conn,
		store: store,
		log:   log,
	}
}

func (t *TCPConn) Close() (err error) {
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})

	return err
}

// Serve runs the request/response loop until the client hangs up, the
// stream desyncs, or the server shuts down.
func (t *TCPConn) Serve() {
	defer t.Close()

	for {
		select {
		case <-t.ctx.Done():
			t.log.Info("Context cancelled, exiting...")
			return

		default:
			req, err := protocol.ReadRequest(t.conn)
			if err != nil {
				if errors.Is(err, protocol.ErrEndOfStream) {
					t.log.Info("Client disconnected")
					return
				}

				// After an unknown op code, or any other parse failure,
				// we have no idea where the next message starts. The only
				// safe move is to drop the connection.
				t.log.Warn("Failed to read client request, dropping connection", zap.Error(err))
				return
			}

			if err := t.dispatch(req); err != nil {
				t.log.Warn("Failed to respond",
					zap.String("op", req.GetOpCode().String()),
					zap.Uint32("userID", req.GetUserID()),
					zap.Error(err))
				return
			}
		}
	}
}

func (t *TCPConn) dispatch(req protocol.Request) error {
	log := t.log.With(
		zap.String("op", req.GetOpCode().String()),
		zap.Uint32("userID", req.GetUserID()),
		zap.String("file", req.GetFilename()))

	switch r := req.(type) {
	case *protocol.BackupRequest:
		if err := t.store.Put(t.ctx, r.GetUserID(), r.GetFilename(), r.Payload); err != nil {
			log.Error("Failed to store file", zap.Error(err))
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrGeneral, r.GetFilename())
		}

		log.Info("Stored file", zap.Uint32("size", r.Size))
		return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusNoPayload, r.GetFilename())

	case *protocol.RestoreRequest:
		data, err := t.store.Get(t.ctx, r.GetUserID(), r.GetFilename())
		if errors.Is(err, storage.ErrNotFound) {
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrFileNotFound, r.GetFilename())
		}
		if err != nil {
			log.Error("Failed to fetch file", zap.Error(err))
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrGeneral, r.GetFilename())
		}

		return protocol.WritePayload(t.conn, ServerVersion, protocol.StatusFound, r.GetFilename(), data)

	case *protocol.DeleteRequest:
		err := t.store.Delete(t.ctx, r.GetUserID(), r.GetFilename())
		if errors.Is(err, storage.ErrNotFound) {
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrFileNotFound, r.GetFilename())
		}
		if err != nil {
			log.Error("Failed to delete file", zap.Error(err))
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrGeneral, r.GetFilename())
		}

		return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusNoPayload, r.GetFilename())

	case *protocol.ListRequest:
		names, err := t.store.List(t.ctx, r.GetUserID())
		if err != nil {
			log.Error("Failed to list files", zap.Error(err))
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrGeneral, "")
		}

		if len(names) == 0 {
			return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrNoFiles, "")
		}

		payload := []byte(strings.Join(names, "\n"))
		return protocol.WritePayload(t.conn, ServerVersion, protocol.StatusFileList, "", payload)

	default:
		return protocol.WriteStatus(t.conn, ServerVersion, protocol.StatusErrGeneral, req.GetFilename())
	}
}
