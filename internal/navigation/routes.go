// Package navigation resolves console paths to role-gated views and owns the lifecycle of the
// view currently mounted in a console.
package navigation

import (
	"context"
	"fmt"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

const (
	DefaultPath = "/"
	titleSuffix = " • Ivony"
	LoginTitle  = "Login" + titleSuffix
)

// Disposer releases whatever a mounted view holds (tickers, subscriptions).
type Disposer func()

// View is a rendered page: its JSON view model plus an optional disposer.
type View struct {
	Data    any
	Dispose Disposer
}

// Renderer builds the view of one route.
type Renderer func(ctx context.Context) (View, error)

// Definition is the static part of a route.
type Definition struct {
	Path  string
	Title string
	Roles []domain.Role
}

var (
	allRoles     = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleViewer}
	managerRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	adminOnly    = []domain.Role{domain.RoleAdmin}
)

// Definitions is the console route table, in menu order.
var Definitions = []Definition{
	{Path: "/", Title: "Dashboard", Roles: allRoles},
	{Path: "/users", Title: "Users", Roles: managerRoles},
	{Path: "/applications", Title: "Applications", Roles: managerRoles},
	{Path: "/projects", Title: "Projects", Roles: managerRoles},
	{Path: "/consultations", Title: "Consultations", Roles: allRoles},
	{Path: "/analytics", Title: "Analytics", Roles: allRoles},
	{Path: "/logs", Title: "Logs", Roles: adminOnly},
	{Path: "/settings", Title: "Settings", Roles: adminOnly},
}

// Route binds a definition to its renderer.
type Route struct {
	Definition
	Render Renderer
}

// Allows reports whether role may open the route.
func (r Route) Allows(role domain.Role) bool {
	return domain.HasAnyRole(role, r.Roles)
}

// Table is the immutable route table of a console.
type Table struct {
	routes map[string]Route
	order  []string
}

// Bind builds the table from Definitions. Every definition needs a renderer.
func Bind(renderers map[string]Renderer) (*Table, error) {
	t := &Table{routes: make(map[string]Route, len(Definitions))}
	for _, def := range Definitions {
		render, ok := renderers[def.Path]
		if !ok || render == nil {
			return nil, fmt.Errorf("navigation: no renderer for %s", def.Path)
		}
		roles := append([]domain.Role(nil), def.Roles...)
		t.routes[def.Path] = Route{Definition: Definition{Path: def.Path, Title: def.Title, Roles: roles}, Render: render}
		t.order = append(t.order, def.Path)
	}
	return t, nil
}

// Lookup returns the route of path, falling back to the default route.
func (t *Table) Lookup(path string) Route {
	if r, ok := t.routes[path]; ok {
		return r
	}
	return t.routes[DefaultPath]
}

// NavItem is one entry of the console menu.
type NavItem struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Menu lists every route in table order, marking the one at location as active.
func (t *Table) Menu(location string) []NavItem {
	items := make([]NavItem, 0, len(t.order))
	for _, p := range t.order {
		r := t.routes[p]
		items = append(items, NavItem{Path: r.Path, Title: r.Title, Active: r.Path == location})
	}
	return items
}

// PageTitle formats the document title of a route.
func PageTitle(title string) string {
	return title + titleSuffix
}
