// Package schema keeps explicit field tables of entity types.
//
// A table is declared once per entity and gives two things:
//   - name resolution: wire (external) field names, possibly dotted, to internal attribute paths;
//   - partial update: copying present batch-updatable fields from one value onto another.
//
// Tables are plain Go values checked by the compiler; nothing is discovered at runtime.
package schema

import (
	"fmt"
	"strings"

	"github.com/nkiryanov/todoserver/internal/apperrors"
)

// Type describes the fields of an entity for name resolution
type Type interface {
	// Entity name, used in logs and errors
	Name() string

	// Find field by its external name
	// nested is nil if the field is not a composite
	Lookup(external string) (internal string, nested Type, ok bool)
}

// Field of entity T
// Build it with Attr, Hidden, Nested or Patchable
type Field[T any] struct {
	// Wire name. Empty means the field is not visible for resolution
	External string

	// Internal attribute name, single path segment
	Internal string

	// Type of composite field, nil for scalars
	Nested Type

	// Copies value from src to dst if src has it. Nil if the field is not batch-updatable
	merge func(dst, src *T) bool
}

// Batch-updatable reports whether the field takes part in Merge
func (f Field[T]) BatchUpdatable() bool {
	return f.merge != nil
}

// Read-only scalar field
func Attr[T any](external, internal string) Field[T] {
	return Field[T]{External: external, Internal: internal}
}

// Field without wire name. Never resolvable and never batch-updatable
func Hidden[T any](internal string) Field[T] {
	return Field[T]{Internal: internal}
}

// Read-only composite field; resolution descends into nested
func Nested[T any](external, internal string, nested Type) Field[T] {
	return Field[T]{External: external, Internal: internal, Nested: nested}
}

// Batch-updatable field stored as pointer; nil pointer means the value is absent
// ptr must return address of the field inside the given entity
func Patchable[T any, V any](external, internal string, ptr func(*T) **V) Field[T] {
	return Field[T]{
		External: external,
		Internal: internal,
		merge: func(dst, src *T) bool {
			value := *ptr(src)
			if value == nil {
				return false
			}

			copied := *value
			*ptr(dst) = &copied
			return true
		},
	}
}

type Schema[T any] struct {
	name   string
	fields []Field[T]
}

// New returns field table of entity T
// Panics on empty or duplicated names: tables are declared at package level and it is a programming error
func New[T any](name string, fields ...Field[T]) *Schema[T] {
	external := make(map[string]struct{}, len(fields))
	internal := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if f.Internal == "" || strings.Contains(f.Internal, ".") {
			panic(fmt.Sprintf("schema %s: invalid internal name %q", name, f.Internal))
		}
		if _, ok := internal[f.Internal]; ok {
			panic(fmt.Sprintf("schema %s: duplicated internal name %q", name, f.Internal))
		}
		internal[f.Internal] = struct{}{}

		if f.External == "" {
			continue
		}
		if strings.Contains(f.External, ".") {
			panic(fmt.Sprintf("schema %s: invalid external name %q", name, f.External))
		}
		if _, ok := external[f.External]; ok {
			panic(fmt.Sprintf("schema %s: duplicated external name %q", name, f.External))
		}
		external[f.External] = struct{}{}
	}

	return &Schema[T]{name: name, fields: fields}
}

func (s *Schema[T]) Name() string {
	return s.name
}

func (s *Schema[T]) Lookup(external string) (string, Type, bool) {
	if external == "" {
		return "", nil, false
	}

	for _, f := range s.fields {
		if f.External != "" && f.External == external {
			return f.Internal, f.Nested, true
		}
	}

	return "", nil, false
}

// Fields returns a copy of the table
func (s *Schema[T]) Fields() []Field[T] {
	fields := make([]Field[T], len(s.fields))
	copy(fields, s.fields)
	return fields
}

// Merge copies every batch-updatable field present in update onto current
// Reports whether anything was copied. Absent (nil) values never touch current
func (s *Schema[T]) Merge(current *T, update *T) (bool, error) {
	if current == nil || update == nil {
		return false, fmt.Errorf("merge %s: %w", s.name, apperrors.ErrNilArgument)
	}

	changed := false
	for _, f := range s.fields {
		if f.merge != nil && f.merge(current, update) {
			changed = true
		}
	}

	return changed, nil
}
