package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"safora/internal/api"
	"safora/internal/daemon"
	"safora/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.Impact("IPC clients may fail to connect"),
					logging.Hint("Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.Impact("stale IPC socket may block future starts"),
			logging.Hint("Remove the socket file manually or rerun safora stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx).Payload()
	return nil
}

func (s *service) Invoke(req InvokeRequest, resp *InvokeResponse) error {
	if strings.TrimSpace(req.Channel) == "" || strings.TrimSpace(req.Operation) == "" {
		return errors.New("channel and operation are required")
	}
	inv := api.ToInvocation(req)
	*resp = api.FromResult(s.daemon.Invoke(s.ctx, req.Channel, inv), inv.CorrelationID)
	return nil
}

func (s *service) Presence(_ PresenceRequest, resp *PresenceResponse) error {
	rec, err := s.daemon.Presence(s.ctx)
	if err != nil {
		return err
	}
	resp.Presence = api.FromPresence(rec)
	return nil
}

func (s *service) Notices(_ NoticesRequest, resp *NoticesResponse) error {
	list, err := s.daemon.Notices(s.ctx)
	if err != nil {
		return err
	}
	resp.Notices = api.FromNotices(list)
	return nil
}

func (s *service) Capabilities(_ CapabilitiesRequest, resp *CapabilitiesResponse) error {
	caps, err := s.daemon.Capabilities(s.ctx)
	if err != nil {
		return err
	}
	resp.Capabilities = caps
	return nil
}

func (s *service) Capability(req CapabilityRequest, resp *CapabilityResponse) error {
	c, err := s.daemon.Capability(s.ctx, req.Name)
	if err != nil {
		return err
	}
	resp.Capability = c
	return nil
}

func (s *service) ResolveAuthorization(req ResolveRequest, resp *CapabilityResponse) error {
	c, err := s.daemon.ResolveAuthorization(s.ctx, req.Name, req.Granted)
	if err != nil {
		return err
	}
	resp.Capability = c
	return nil
}

func (s *service) AuthorizationRequests(req CapabilityRequest, resp *RequestsResponse) error {
	list, err := s.daemon.AuthorizationRequests(s.ctx, req.Name)
	if err != nil {
		return err
	}
	resp.Requests = list
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
