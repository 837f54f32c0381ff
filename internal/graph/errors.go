package graph

import "fmt"

// ComponentError is fatal: a component used a directive outside its type's
// allowed set, or its declaring block is itself broken. It aborts the whole
// discovery cycle.
type ComponentError struct {
	Component string
	File      string
	Line      int
	Message   string
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s:%d: component %q: %s", e.File, e.Line, e.Component, e.Message)
}

// ResourceError is fatal: a resource declaration is missing its type,
// redeclared with a conflicting type, missing a required setting, or carries
// an invalid enum value.
type ResourceError struct {
	Resource string
	File     string
	Line     int
	Message  string
}

func (e *ResourceError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("resource %q: %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("%s:%d: resource %q: %s", e.File, e.Line, e.Resource, e.Message)
}
