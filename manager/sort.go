package manager

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jacentio/entitymanager/config"
)

// SortKey orders query results by one property.
type SortKey struct {
	Property string
	Desc     bool
}

// sortItems stably sorts items by each key in turn. Absent values sort
// first in either direction.
func sortItems(items []Item, order []SortKey) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range order {
			a, b := items[i][key.Property], items[j][key.Property]
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				return true
			case b == nil:
				return false
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// kind ranks values of different types against each other.
func kind(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case string:
		return 2
	case time.Time:
		return 3
	}
	if _, err := config.AsFloat64(v); err == nil {
		return 1
	}
	return 4
}

func compareValues(a, b any) int {
	ka, kb := kind(a), kind(b)
	if ka != kb {
		return ka - kb
	}
	switch ka {
	case 0:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case 1:
		x, _ := config.AsFloat64(a)
		y, _ := config.AsFloat64(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}
