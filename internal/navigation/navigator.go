package navigation

import (
	"context"
	"html"
	"sync"

	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// Outcome is the state a navigation ends in.
type Outcome string

const (
	Unauthenticated Outcome = "unauthenticated"
	Forbidden       Outcome = "forbidden"
	Rendered        Outcome = "rendered"
)

// Result describes the page a console shows after a navigation.
type Result struct {
	Outcome  Outcome   `json:"outcome"`
	Location string    `json:"location"`
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Message  string    `json:"message,omitempty"`
	Nav      []NavItem `json:"nav,omitempty"`
	View     any       `json:"view,omitempty"`
}

// StateFunc reads the current authentication state of the console.
type StateFunc func() domain.AuthState

// Navigator is the router of one console. The disposer of the mounted view runs before every
// transition.
type Navigator struct {
	mu       sync.Mutex
	table    *Table
	state    StateFunc
	logger   *zap.Logger
	location string
	dispose  Disposer
	current  Result
}

func NewNavigator(table *Table, state StateFunc, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{table: table, state: state, logger: logger, location: DefaultPath}
}

// Location returns the path the console is at.
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Current returns the result of the last navigation.
func (n *Navigator) Current() Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// NavigateTo moves the console to path. Navigating to the current location re-renders it.
func (n *Navigator) NavigateTo(ctx context.Context, path string) (Result, error) {
	if path == "" {
		path = DefaultPath
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.location != path {
		n.location = path
	}
	return n.navigate(ctx)
}

// Refresh re-renders the current location, e.g. after sign-in or sign-out.
func (n *Navigator) Refresh(ctx context.Context) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navigate(ctx)
}

// Close disposes the mounted view.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cleanup()
}

func (n *Navigator) cleanup() {
	if n.dispose != nil {
		d := n.dispose
		n.dispose = nil
		d()
	}
}

func (n *Navigator) navigate(ctx context.Context) (Result, error) {
	route := n.table.Lookup(n.location)
	st := n.state()

	n.cleanup()

	if !st.IsAuthenticated {
		return n.showLogin(), nil
	}

	if !route.Allows(st.Role) {
		n.logger.Debug("route forbidden", zap.String("path", route.Path), zap.String("role", string(st.Role)))
		n.current = Result{
			Outcome:  Forbidden,
			Location: n.location,
			Path:     route.Path,
			Title:    PageTitle(route.Title),
			Message:  "You do not have access to " + html.EscapeString(route.Title) + ".",
			Nav:      n.table.Menu(n.location),
		}
		return n.current, nil
	}

	view, err := route.Render(ctx)
	if err != nil {
		// The renderer may have lost the session, e.g. on a failed token refresh.
		if !n.state().IsAuthenticated {
			n.logger.Debug("session lost while rendering", zap.String("path", route.Path), zap.Error(err))
			return n.showLogin(), nil
		}
		n.logger.Warn("view failed to render", zap.String("path", route.Path), zap.Error(err))
		n.current = Result{}
		return Result{}, err
	}
	n.dispose = view.Dispose
	n.current = Result{
		Outcome:  Rendered,
		Location: n.location,
		Path:     route.Path,
		Title:    PageTitle(route.Title),
		Nav:      n.table.Menu(n.location),
		View:     view.Data,
	}
	return n.current, nil
}

func (n *Navigator) showLogin() Result {
	n.current = Result{
		Outcome:  Unauthenticated,
		Location: n.location,
		Path:     "/login",
		Title:    LoginTitle,
	}
	return n.current
}
