package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flux/internal/core"
)

// Column layout: ID, Date, Category, Description, Amount, Owner, Created.
func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		core.LookupCategory(e.Category).Name,
		e.Description,
		int64(e.Amount),
		e.OwnerID,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based row whose first column equals id, or 0.
func findRow(ids []string, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, v := range ids {
		if strings.EqualFold(v, id) {
			return i + 1
		}
	}
	return 0
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:G%d", sheet, row, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
