package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

var orderingParam = "ordering"

// Ordering binds the "ordering" query param: a comma-separated list of
// field names, "-" prefixed for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// Less builds a sort.SliceStable less function from the bound
// orderings, given a field comparator returning -1, 0 or 1. Unknown
// fields compare equal.
func (ord *Ordering) Less(cmp func(i, j int, field string) int) func(i, j int) bool {
	return func(i, j int) bool {
		for _, o := range ord.Orderings {
			switch c := cmp(i, j, o.Field); {
			case c == 0:
				continue
			case o.Ascending:
				return c < 0
			default:
				return c > 0
			}
		}
		return false
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Equal(b):
		return 0
	case a.Before(b):
		return -1
	}
	return 1
}
