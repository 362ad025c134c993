package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"safora/internal/api"
)

const dialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Start asks the daemon to bind its channels.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.call("Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to unbind its channels.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*api.DaemonStatus, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Status, nil
}

// Invoke dispatches one channel operation and returns its result.
func (c *Client) Invoke(req InvokeRequest) (*InvokeResponse, error) {
	var resp InvokeResponse
	if err := c.call("Invoke", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Presence returns the presence lifecycle record.
func (c *Client) Presence() (*api.Presence, error) {
	var resp PresenceResponse
	if err := c.call("Presence", PresenceRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Presence, nil
}

// Notices lists the active notices.
func (c *Client) Notices() ([]api.Notice, error) {
	var resp NoticesResponse
	if err := c.call("Notices", NoticesRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Notices, nil
}

// Capabilities lists every known capability.
func (c *Client) Capabilities() ([]api.Capability, error) {
	var resp CapabilitiesResponse
	if err := c.call("Capabilities", CapabilitiesRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Capabilities, nil
}

// Capability reports one capability without prompting.
func (c *Client) Capability(name string) (*api.Capability, error) {
	var resp CapabilityResponse
	if err := c.call("Capability", CapabilityRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp.Capability, nil
}

// ResolveAuthorization grants or denies a capability.
func (c *Client) ResolveAuthorization(name string, granted bool) (*api.Capability, error) {
	var resp CapabilityResponse
	if err := c.call("ResolveAuthorization", ResolveRequest{Name: name, Granted: granted}, &resp); err != nil {
		return nil, err
	}
	return &resp.Capability, nil
}

// AuthorizationRequests lists recent authorization requests for a capability.
func (c *Client) AuthorizationRequests(name string) ([]api.AuthorizationRequest, error) {
	var resp RequestsResponse
	if err := c.call("AuthorizationRequests", CapabilityRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
