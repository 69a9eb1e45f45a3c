package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/projecteru2/guestops/types"
)

const (
	// HTTPTimeout is the per-request timeout for guest-channel calls. Agent
	// calls are quick; waiting for long guest work happens by polling, not
	// by holding a request open.
	HTTPTimeout = 30 * time.Second

	callPathPrefix = "/v1/guest/"
)

// compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient speaks the guest-channel JSON protocol over the per-VM Unix
// socket published by the hypervisor. One POST per agent operation.
type HTTPClient struct{}

// NewHTTPClient creates the socket-backed agent client.
func NewHTTPClient() *HTTPClient { return &HTTPClient{} }

// newSocketHTTPClient creates an HTTP client that dials a Unix domain socket.
func newSocketHTTPClient(socketPath string) *http.Client {
	return &http.Client{
		Timeout: HTTPTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
}

// callEnvelope is the request body for every agent operation.
type callEnvelope struct {
	Auth *authPayload    `json:"auth,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

type authPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// faultEnvelope is the body of non-2xx agent responses.
type faultEnvelope struct {
	Fault   string `json:"fault"`
	Message string `json:"message"`
}

// Call executes one agent operation and decodes the response into result.
func (c *HTTPClient) Call(ctx context.Context, guest *types.Guest, auth *types.Auth, op Op, args, result any) error {
	if guest == nil || guest.SocketPath == "" {
		return &CommunicationError{Op: op, Err: fmt.Errorf("guest has no channel socket")}
	}

	env := callEnvelope{}
	if auth != nil {
		env.Auth = &authPayload{Username: auth.Username, Password: auth.Password}
	}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return &CommunicationError{Op: op, Err: fmt.Errorf("encode args: %w", err)}
		}
		env.Args = raw
	}
	body, err := json.Marshal(env)
	if err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("encode envelope: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://localhost"+callPathPrefix+string(op), bytes.NewReader(body))
	if err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := newSocketHTTPClient(guest.SocketPath).Do(req)
	if err != nil {
		return &CommunicationError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return decodeFault(op, auth, resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

// decodeFault maps a non-2xx agent response to a typed error.
func decodeFault(op Op, auth *types.Auth, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var fe faultEnvelope
	if err := json.Unmarshal(raw, &fe); err != nil || fe.Fault == "" {
		return &CommunicationError{
			Op:  op,
			Err: fmt.Errorf("agent responded %d: %s", resp.StatusCode, raw),
		}
	}
	username := ""
	if auth != nil {
		username = auth.Username
	}
	return faultError(op, fe.Fault, fe.Message, username)
}

// CheckSocket verifies that a guest-channel socket is connectable.
func CheckSocket(socketPath string) error {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return err
	}
	return conn.Close()
}
