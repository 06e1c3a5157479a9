package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

type recorder struct {
	rendered []string
	disposed []string
}

func (r *recorder) renderers() map[string]Renderer {
	out := make(map[string]Renderer, len(Definitions))
	for _, def := range Definitions {
		path := def.Path
		out[path] = func(ctx context.Context) (View, error) {
			r.rendered = append(r.rendered, path)
			return View{Data: path, Dispose: func() { r.disposed = append(r.disposed, path) }}, nil
		}
	}
	return out
}

func newNavigator(t *testing.T, st *domain.AuthState) (*Navigator, *recorder) {
	t.Helper()
	rec := &recorder{}
	table, err := Bind(rec.renderers())
	require.NoError(t, err)
	return NewNavigator(table, func() domain.AuthState { return *st }, nil), rec
}

func signedIn(role domain.Role) *domain.AuthState {
	return &domain.AuthState{Session: &domain.Session{}, IsAuthenticated: true, Role: role}
}

func TestBindRequiresEveryRenderer(t *testing.T) {
	rec := &recorder{}
	renderers := rec.renderers()
	delete(renderers, "/logs")

	_, err := Bind(renderers)
	assert.Error(t, err)
}

func TestUnauthenticatedAlwaysShowsLogin(t *testing.T) {
	st := &domain.AuthState{Role: domain.RoleVisitor}
	nav, rec := newNavigator(t, st)

	for _, path := range []string{"/", "/settings", "/nope"} {
		res, err := nav.NavigateTo(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, Unauthenticated, res.Outcome)
		assert.Equal(t, "Login • Ivony", res.Title)
		assert.Equal(t, path, res.Location)
	}
	assert.Empty(t, rec.rendered)
}

func TestForbiddenDoesNotRender(t *testing.T) {
	nav, rec := newNavigator(t, signedIn(domain.RoleViewer))

	res, err := nav.NavigateTo(context.Background(), "/logs")
	require.NoError(t, err)
	assert.Equal(t, Forbidden, res.Outcome)
	assert.Equal(t, "You do not have access to Logs.", res.Message)
	assert.Equal(t, "Logs • Ivony", res.Title)
	assert.Equal(t, "/logs", nav.Location())
	assert.Empty(t, rec.rendered)
}

func TestForbiddenMessageIsEscaped(t *testing.T) {
	rec := &recorder{}
	table, err := Bind(rec.renderers())
	require.NoError(t, err)
	r := table.routes["/logs"]
	r.Title = `<script>"x"</script>`
	table.routes["/logs"] = r

	nav := NewNavigator(table, func() domain.AuthState { return *signedIn(domain.RoleViewer) }, nil)
	res, err := nav.NavigateTo(context.Background(), "/logs")
	require.NoError(t, err)
	assert.Equal(t, "You do not have access to &lt;script&gt;&#34;x&#34;&lt;/script&gt;.", res.Message)
}

func TestRenderedRunsPreviousDisposerFirst(t *testing.T) {
	nav, rec := newNavigator(t, signedIn(domain.RoleAdmin))
	ctx := context.Background()

	res, err := nav.NavigateTo(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, Rendered, res.Outcome)
	assert.Equal(t, "Dashboard • Ivony", res.Title)
	assert.Equal(t, "/", res.View)

	_, err = nav.NavigateTo(ctx, "/analytics")
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, rec.disposed)

	// same location re-renders and disposes the previous mount
	_, err = nav.NavigateTo(ctx, "/analytics")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/analytics", "/analytics"}, rec.rendered)
	assert.Equal(t, []string{"/", "/analytics"}, rec.disposed)

	nav.Close()
	assert.Equal(t, []string{"/", "/analytics", "/analytics"}, rec.disposed)
}

func TestDisposerRunsWhenSessionEnds(t *testing.T) {
	st := signedIn(domain.RoleAdmin)
	nav, rec := newNavigator(t, st)
	ctx := context.Background()

	_, err := nav.NavigateTo(ctx, "/")
	require.NoError(t, err)

	*st = domain.AuthState{Role: domain.RoleVisitor}
	res, err := nav.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated, res.Outcome)
	assert.Equal(t, []string{"/"}, rec.disposed)
}

func TestUnknownPathFallsBackToDefault(t *testing.T) {
	nav, rec := newNavigator(t, signedIn(domain.RoleManager))

	res, err := nav.NavigateTo(context.Background(), "/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, Rendered, res.Outcome)
	assert.Equal(t, "/", res.Path)
	assert.Equal(t, "/does-not-exist", res.Location)
	assert.Equal(t, []string{"/"}, rec.rendered)
	for _, item := range res.Nav {
		assert.False(t, item.Active, "no menu entry matches an unknown location")
	}
}

func TestActiveNavFollowsLocation(t *testing.T) {
	nav, _ := newNavigator(t, signedIn(domain.RoleAdmin))

	res, err := nav.NavigateTo(context.Background(), "/users")
	require.NoError(t, err)
	active := 0
	for _, item := range res.Nav {
		if item.Active {
			active++
			assert.Equal(t, "/users", item.Path)
		}
	}
	assert.Equal(t, 1, active)
	assert.Len(t, res.Nav, len(Definitions))
}

func TestRenderErrorKeepsNoDisposer(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	renderers := rec.renderers()
	renderers["/users"] = func(ctx context.Context) (View, error) { return View{}, boom }
	table, err := Bind(renderers)
	require.NoError(t, err)
	nav := NewNavigator(table, func() domain.AuthState { return *signedIn(domain.RoleAdmin) }, nil)

	_, err = nav.NavigateTo(context.Background(), "/")
	require.NoError(t, err)
	_, err = nav.NavigateTo(context.Background(), "/users")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"/"}, rec.disposed)
	assert.Empty(t, nav.Current().Outcome, "a failed render leaves no mounted page")

	nav.Close()
	assert.Equal(t, []string{"/"}, rec.disposed)
}

func TestSessionLostDuringRenderShowsLogin(t *testing.T) {
	st := signedIn(domain.RoleAdmin)
	rec := &recorder{}
	renderers := rec.renderers()
	renderers["/users"] = func(ctx context.Context) (View, error) {
		*st = domain.AuthState{Role: domain.RoleVisitor}
		return View{}, errors.New("authentication required")
	}
	table, err := Bind(renderers)
	require.NoError(t, err)
	nav := NewNavigator(table, func() domain.AuthState { return *st }, nil)

	_, err = nav.NavigateTo(context.Background(), "/")
	require.NoError(t, err)

	res, err := nav.NavigateTo(context.Background(), "/users")
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated, res.Outcome)
	assert.Equal(t, LoginTitle, res.Title)
	assert.Equal(t, "/users", res.Location)
	assert.Equal(t, res, nav.Current())
	assert.Equal(t, []string{"/"}, rec.disposed)
}
