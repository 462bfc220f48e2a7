package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrUnknownNode   = errors.New("node not in graph")
	ErrInputNotFound = errors.New("input file not found")
	ErrInputRead     = errors.New("input file unreadable")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op      string // Operation that failed (e.g., "Weight", "Load")
	Entity  string // Entity type (e.g., "node", "edge", "file")
	Key     string // Node key, edge key or path
	Line    int    // Input line number (loader only)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s %s (line %d): %v", e.Op, e.Entity, e.Key, e.Line, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s %s (%s): %v", e.Op, e.Entity, e.Key, e.Context, e.Cause)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.Key, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building GraphErrors.
type ErrorBuilder struct {
	err GraphError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op}}
}

// Node sets the entity to "node" with the given key.
func (b *ErrorBuilder) Node(key string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.Key = key
	return b
}

// Edge sets the entity to "edge" with the given key.
func (b *ErrorBuilder) Edge(key EdgeKey) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.Key = key.String()
	return b
}

// File sets the entity to "file" with the given path.
func (b *ErrorBuilder) File(path string) *ErrorBuilder {
	b.err.Entity = "file"
	b.err.Key = path
	return b
}

// Line sets the input line number.
func (b *ErrorBuilder) Line(n int) *ErrorBuilder {
	b.err.Line = n
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed GraphError.
func (b *ErrorBuilder) Build() *GraphError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// IsUnknownNode reports whether err was caused by a query on an unknown node.
func IsUnknownNode(err error) bool {
	return errors.Is(err, ErrUnknownNode)
}
