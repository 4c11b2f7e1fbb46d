package models

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// One sort key: internal attribute path and direction
// Sort keys compose left to right, the first one is the most significant
type SortOrder struct {
	Path      string
	Direction Direction
}
