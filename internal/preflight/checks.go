package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sys/unix"
)

const defaultCheckTimeout = 5 * time.Second

// CheckGateway verifies the SMS gateway answers and accepts the configured
// token. The gateway only accepts message submissions, so any response other
// than an auth rejection or a server error counts as reachable.
func CheckGateway(ctx context.Context, endpoint, token string, timeout time.Duration) Result {
	const name = "SMS gateway"

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Detail: "not configured (messages will fail)"}
	}

	req := newClient(timeout).R().SetContext(ctx)
	if token = strings.TrimSpace(token); token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Get(endpoint)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	case code >= http.StatusInternalServerError:
		return Result{Name: name, Detail: fmt.Sprintf("gateway error (%d)", code)}
	default:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
}

// CheckNtfy verifies the ntfy topic URL answers.
func CheckNtfy(ctx context.Context, topic string, timeout time.Duration) Result {
	const name = "ntfy"

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}

	resp, err := newClient(timeout).R().
		SetContext(ctx).
		SetQueryParam("poll", "1").
		SetQueryParam("since", "none").
		Get(strings.TrimRight(topic, "/") + "/json")
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if resp.IsError() {
		return Result{Name: name, Detail: fmt.Sprintf("topic check failed (%d)", resp.StatusCode())}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func newClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 || timeout > defaultCheckTimeout {
		timeout = defaultCheckTimeout
	}
	return resty.New().SetTimeout(timeout)
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
