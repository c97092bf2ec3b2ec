package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/tusharlock10/hostid/internal/hardware"
	"github.com/tusharlock10/hostid/internal/log"
)

// Methods understood by the server.
const (
	MethodHealth    = "health"
	MethodGetHostID = "get_host_id"
	MethodGetReport = "get_report"
)

// Request is a single IPC request line sent by a client.
type Request struct {
	Method string `json:"method"`
}

// Response is the IPC response written back to the client.
type Response struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	HostID string           `json:"host_id,omitempty"`
	Report *hardware.Report `json:"report,omitempty"`
}

// Source produces the values served over IPC. It is queried on every request.
type Source interface {
	HostID() (string, error)
	Report() (*hardware.Report, error)
}

// Server answers host identity queries over a Unix domain socket
// (Linux/macOS) or a named pipe (Windows).
type Server struct {
	socketPath string
	listener   net.Listener
	source     Source
	log        *log.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// DefaultSocketPath returns the platform-appropriate IPC endpoint.
func DefaultSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\hostid`
	}
	return filepath.Join(os.TempDir(), "hostid.sock")
}

// NewServer creates the IPC listener and returns a Server ready to call Serve on.
func NewServer(socketPath string, src Source, logger *log.Logger) (*Server, error) {
	ln, err := newListener(socketPath)
	if err != nil {
		return nil, fmt.Errorf("create IPC listener: %w", err)
	}
	if logger == nil {
		logger = log.Discard
	}
	return &Server{
		socketPath: socketPath,
		listener:   ln,
		source:     src,
		log:        logger,
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// Serve accepts connections until ctx is cancelled. Returns nil on clean shutdown,
// after every open connection has been closed.
func (s *Server) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
			s.closeConns()
		case <-stop:
		}
	}()

	defer s.wg.Wait()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.closeConns()
				return fmt.Errorf("IPC accept: %w", err)
			}
		}

		s.track(conn)
		if ctx.Err() != nil {
			conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

// Close closes the listener and removes the socket file (Unix) or pipe handle (Windows).
func (s *Server) Close() error {
	err := s.listener.Close()
	cleanupListener(s.socketPath)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{Status: "error", Error: "malformed request"}) //nolint:errcheck
			continue
		}
		encoder.Encode(s.handleRequest(req)) //nolint:errcheck
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodHealth:
		return Response{Status: "ok"}

	case MethodGetHostID:
		id, err := s.source.HostID()
		if err != nil {
			s.log.Error("Failed to resolve host ID", err)
			return Response{Status: "error", Error: err.Error()}
		}
		return Response{Status: "ok", HostID: id}

	case MethodGetReport:
		rep, err := s.source.Report()
		if err != nil {
			s.log.Error("Failed to collect host report", err)
			return Response{Status: "error", Error: err.Error()}
		}
		return Response{Status: "ok", HostID: rep.HostID, Report: rep}

	default:
		return Response{Status: "error", Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// Query sends a single request to the server at socketPath and returns its response.
func Query(ctx context.Context, socketPath, method string) (*Response, error) {
	conn, err := dialSocket(socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial IPC socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set IPC deadline: %w", err)
		}
	}

	data, err := json.Marshal(Request{Method: method})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, errors.New("read response: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &resp, nil
}
