package api

import (
	"fmt"
	"net/url"
	"strconv"
)

// Sort is the direction of an ordered listing
type Sort string

const (
	Asc  Sort = "asc"
	Desc Sort = "desc"
)

// ParseSort accepts "asc" or "desc"; empty means Asc
func ParseSort(s string) (Sort, error) {
	switch s {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("invalid sort %q (want asc or desc)", s)
}

// Toggle returns the opposite direction
func (s Sort) Toggle() Sort {
	if s == Desc {
		return Asc
	}
	return Desc
}

// Query selects a page of a collection
type Query struct {
	Limit   int
	Offset  int
	OrderBy string
	Sort    Sort
}

// Values encodes the query as limit/offset/orderBy/sort parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.OrderBy != "" {
		v.Set("orderBy", q.OrderBy)
		sort := q.Sort
		if sort == "" {
			sort = Asc
		}
		v.Set("sort", string(sort))
	}
	return v
}
