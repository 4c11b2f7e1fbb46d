package schema

import (
	"strings"
)

// Resolve maps dotted external path (like "user.created_at") to internal one (like "User.CreatedAt")
//
// Every segment has to match a visible field of the current type, and every segment but the last one
// has to be a composite. Anything else (empty segment, unknown or hidden field, partial match) is not resolvable.
func Resolve(externalPath string, root Type) (string, bool) {
	path, _, ok := resolve(externalPath, root)
	return path, ok
}

// ResolveScalar is Resolve that also requires the last segment to be a scalar field
// Composite fields have no value of their own to compare or sort by
func ResolveScalar(externalPath string, root Type) (string, bool) {
	path, last, ok := resolve(externalPath, root)
	if !ok || last != nil {
		return "", false
	}
	return path, true
}

// Walk the path and return type of the last field, nil for scalars
func resolve(externalPath string, root Type) (string, Type, bool) {
	if root == nil || externalPath == "" {
		return "", nil, false
	}

	segments := strings.Split(externalPath, ".")
	internal := make([]string, 0, len(segments))
	current := root

	for _, segment := range segments {
		if current == nil {
			return "", nil, false // previous segment was a scalar
		}

		name, nested, ok := current.Lookup(segment)
		if !ok {
			return "", nil, false
		}

		internal = append(internal, name)
		current = nested
	}

	if len(internal) != len(segments) {
		return "", nil, false
	}

	return strings.Join(internal, "."), current, true
}
