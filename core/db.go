package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderingClauses keeps the orderings whose field is allowed, mapped to their column name.
func OrderingClauses(ords []DBOrdering, columns map[string]string) []string {
	clauses := make([]string, 0, len(ords))
	for _, ord := range ords {
		col, ok := columns[strings.ToLower(ord.Field)]
		if !ok {
			continue
		}
		clauses = append(clauses, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	return clauses
}
