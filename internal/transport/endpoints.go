package transport

import (
	"net/url"
	"strings"

	"codeberg.org/mutker/brewmon/internal/errors"
)

const (
	statusSocketPath = "/ws/brew/status"
	statusStreamPath = "/sse/brew/status"
	healthSocketPath = "/ws/health"
	healthStreamPath = "/sse/health"
)

// Endpoints derives the push endpoints from one configured API base URL.
// The socket endpoints swap http for ws (https for wss); the stream
// endpoints keep the http scheme. Both strip a trailing /api segment,
// which the controller mounts its REST routes under but not its push
// routes.
type Endpoints struct {
	apiBase  string
	httpRoot string
	wsRoot   string
}

// NewEndpoints validates and rewrites the API base URL.
func NewEndpoints(apiBase string) (Endpoints, error) {
	errFactory := errors.New()

	parsed, err := url.Parse(strings.TrimSuffix(apiBase, "/"))
	if err != nil {
		return Endpoints{}, errFactory.Wrap(ErrInvalidBaseURL, err)
	}
	if parsed.Host == "" {
		return Endpoints{}, errFactory.WithData(ErrInvalidBaseURL, apiBase)
	}

	root := *parsed
	root.Path = strings.TrimSuffix(root.Path, "/api")

	socket := root
	switch root.Scheme {
	case "http":
		socket.Scheme = "ws"
	case "https":
		socket.Scheme = "wss"
	default:
		return Endpoints{}, errFactory.WithData(ErrInvalidBaseURL, apiBase)
	}

	return Endpoints{
		apiBase:  parsed.String(),
		httpRoot: root.String(),
		wsRoot:   socket.String(),
	}, nil
}

// API returns the REST base URL for control-plane requests.
func (e Endpoints) API() string {
	return e.apiBase
}

// StatusSocketURL returns the websocket brew status endpoint.
func (e Endpoints) StatusSocketURL() string {
	return e.wsRoot + statusSocketPath
}

// StatusStreamURL returns the SSE brew status endpoint.
func (e Endpoints) StatusStreamURL() string {
	return e.httpRoot + statusStreamPath
}

// HealthSocketURL returns the websocket component health endpoint.
func (e Endpoints) HealthSocketURL() string {
	return e.wsRoot + healthSocketPath
}

// HealthStreamURL returns the SSE component health endpoint.
func (e Endpoints) HealthStreamURL() string {
	return e.httpRoot + healthStreamPath
}

// StatusURL returns the brew status endpoint for the given kind.
func (e Endpoints) StatusURL(kind Kind) string {
	if kind == KindSSE {
		return e.StatusStreamURL()
	}

	return e.StatusSocketURL()
}

// HealthURL returns the component health endpoint for the given kind.
func (e Endpoints) HealthURL(kind Kind) string {
	if kind == KindSSE {
		return e.HealthStreamURL()
	}

	return e.HealthSocketURL()
}
