package atg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMultiValueIndex(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    MultiValueIndex
	}{
		{
			name:    "no groups",
			columns: []string{"ID", "Name", "Color"},
			want:    MultiValueIndex{},
		},
		{
			name:    "one group",
			columns: []string{"ID", "Item1", "Item2", "Item3"},
			want:    MultiValueIndex{"Item": 3},
		},
		{
			name:    "multi-digit suffix",
			columns: []string{"Slot1", "Slot2", "Slot10", "Slot11"},
			want:    MultiValueIndex{"Slot": 4},
		},
		{
			name:    "digits only and embedded digits",
			columns: []string{"2024", "A1B", "A1B2"},
			want:    MultiValueIndex{"A1B": 1},
		},
		{
			name:    "several groups",
			columns: []string{"Tag1", "Name", "Tag2", "Cost1"},
			want:    MultiValueIndex{"Tag": 2, "Cost": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildMultiValueIndex(tt.columns))
		})
	}
}

func TestMultiValueIndex_CountAndBases(t *testing.T) {
	index := BuildMultiValueIndex([]string{"B1", "A1", "A2", "C"})

	n, ok := index.Count("A")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = index.Count("C")
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B"}, index.Bases())
}
