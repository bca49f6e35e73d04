package atg

import "sort"

// MultiValueIndex maps the base name of a repeated column group to the number
// of columns in it: columns Item1, Item2, Item3 give "Item" -> 3.
type MultiValueIndex map[string]int

// BuildMultiValueIndex derives the groups from column names alone. A column
// belongs to the group named by what remains after stripping its maximal
// trailing run of ASCII digits. Names without trailing digits, and names that
// are digits only, belong to no group.
func BuildMultiValueIndex(columns []string) MultiValueIndex {
	index := make(MultiValueIndex)
	for _, column := range columns {
		if base, ok := groupBase(column); ok {
			index[base]++
		}
	}
	return index
}

// Count returns the number of members of group base.
func (m MultiValueIndex) Count(base string) (int, bool) {
	n, ok := m[base]
	return n, ok
}

// Bases returns the group names in sorted order.
func (m MultiValueIndex) Bases() []string {
	out := make([]string, 0, len(m))
	for base := range m {
		out = append(out, base)
	}
	sort.Strings(out)
	return out
}

func groupBase(column string) (string, bool) {
	end := len(column)
	for end > 0 && column[end-1] >= '0' && column[end-1] <= '9' {
		end--
	}
	if end == len(column) || end == 0 {
		return "", false
	}
	return column[:end], true
}
