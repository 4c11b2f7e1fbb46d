// Package sorting validates client-supplied sort keys against entity field tables.
package sorting

import (
	"fmt"
	"strings"

	"github.com/nkiryanov/todoserver/internal/apperrors"
	"github.com/nkiryanov/todoserver/internal/models"
	"github.com/nkiryanov/todoserver/internal/schema"
)

// Validate pairs fields with directions and resolves each field against root
//
// A nil or empty slice means the parameter was not sent. Both absent gives no sort keys.
// Every field has to resolve to a scalar; composites like "user" are rejected.
// The result keeps the input order. Any bad pair fails the whole call with ErrInvalidSortOrder
func Validate(fields []string, directions []string, root schema.Type) ([]models.SortOrder, error) {
	if len(fields) == 0 && len(directions) == 0 {
		return nil, nil
	}

	if len(fields) != len(directions) {
		return nil, fmt.Errorf("%d fields and %d directions: %w", len(fields), len(directions), apperrors.ErrInvalidSortOrder)
	}

	orders := make([]models.SortOrder, 0, len(fields))
	for i := range fields {
		direction, ok := parseDirection(directions[i])
		if !ok {
			return nil, fmt.Errorf("direction %q: %w", directions[i], apperrors.ErrInvalidSortOrder)
		}

		if fields[i] == "" {
			return nil, fmt.Errorf("empty field: %w", apperrors.ErrInvalidSortOrder)
		}

		path, ok := schema.ResolveScalar(fields[i], root)
		if !ok {
			return nil, fmt.Errorf("field %q not resolvable to a scalar: %w", fields[i], apperrors.ErrInvalidSortOrder)
		}

		orders = append(orders, models.SortOrder{Path: path, Direction: direction})
	}

	return orders, nil
}

func parseDirection(value string) (models.Direction, bool) {
	switch {
	case strings.EqualFold(value, string(models.Asc)):
		return models.Asc, true
	case strings.EqualFold(value, string(models.Desc)):
		return models.Desc, true
	default:
		return "", false
	}
}
