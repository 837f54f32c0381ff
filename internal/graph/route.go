package graph

import "github.com/gantry-io/gantry/internal/manifest"

// Visibility controls who may reach a route.
type Visibility string

const (
	// VisibilityPublic routes are reachable from the open internet.
	VisibilityPublic Visibility = "public"
	// VisibilityInternal routes are reachable only from inside the application.
	VisibilityInternal Visibility = "internal"
	// VisibilityPrivate routes are reachable only by the owning component.
	VisibilityPrivate Visibility = "private"
)

// Route is one HTTP mapping owned by exactly one component. Building a route
// records the registration contract only; serving it is someone else's job.
type Route struct {
	Pattern    string
	Method     string
	Visibility Visibility
	// When is an optional activation condition carried verbatim from the
	// route's when= flag.
	When      string
	Component string
	Directive manifest.Directive
}

func buildRoute(c *Component, d manifest.Directive) (*Route, error) {
	visibility := Visibility(d.Param("visibility"))
	if visibility == "" {
		visibility = VisibilityPublic
	}
	return &Route{
		Pattern:    d.Param("pattern"),
		Method:     d.Param("method"),
		Visibility: visibility,
		When:       d.Param("when"),
		Component:  c.Name,
		Directive:  d,
	}, nil
}
