package atg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spanTags(spans []Span) []string {
	tags := make([]string, len(spans))
	for i, s := range spans {
		tags[i] = s.Tag
	}
	return tags
}

func TestMatchSpans(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Span
	}{
		{
			name:  "plain text",
			input: "Hello World",
			want:  nil,
		},
		{
			name:  "simple placeholder",
			input: "ab [$Name$] cd",
			want: []Span{
				{Tag: "Name", Args: "", Raw: "[$Name$]", Start: 3, End: 11},
			},
		},
		{
			name:  "command with arguments",
			input: "[$ATGPREV$Name$]",
			want: []Span{
				{Tag: "ATGPREV", Args: "Name", Raw: "[$ATGPREV$Name$]", Start: 0, End: 16, Control: true},
			},
		},
		{
			name:  "nested expression stays folded",
			input: "[$ATGLIST$Item$<[$Item$]>$]",
			want: []Span{
				{
					Tag:     "ATGLIST",
					Args:    "Item$<[$Item$]>",
					Raw:     "[$ATGLIST$Item$<[$Item$]>$]",
					Start:   0,
					End:     27,
					Control: true,
				},
			},
		},
		{
			name:  "dollar signs in plain text",
			input: "costs $5 $ [$Price$]",
			want: []Span{
				{Tag: "Price", Raw: "[$Price$]", Start: 11, End: 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchSpans(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchSpans_ControlFirst(t *testing.T) {
	input := "a [$Name$] b [$ATGSKIP$] c [$Other$] [$ATGIF$X$1$[$Y$]$] d"

	spans, err := MatchSpans(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"ATGSKIP", "ATGIF", "Name", "Other"}, spanTags(spans))
}

func TestMatchSpans_NonOverlapping(t *testing.T) {
	inputs := []string{
		"[$A$][$B$][$C$]",
		"x[$ATGLIST$G$[$G$][$ATGIF$G$1$[$ATGLINDEX$]$]$]y[$Z$]",
		"[$ATGPREFIX$[$A$]/[$B$]$]\n[$ATGHEADER$h[$x$]$]",
		"[$ATGIF$A$1$[$ATGIF$B$2$[$ATGIF$C$3$deep$]$]$]",
	}

	for _, input := range inputs {
		spans, err := MatchSpans(input)
		require.NoError(t, err, input)
		require.NotEmpty(t, spans, input)

		seenPlain := false
		for i, s := range spans {
			assert.Equal(t, input[s.Start:s.End], s.Raw)
			if s.Control {
				assert.False(t, seenPlain, "control span after plain span in %q", input)
			} else {
				seenPlain = true
			}
			for j, o := range spans {
				if i == j {
					continue
				}
				overlap := s.Start < o.End && o.Start < s.End
				assert.False(t, overlap, "%q overlaps %q", s.Raw, o.Raw)
			}
		}
	}
}

func TestMatchSpans_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		position int
	}{
		{name: "closer at start", input: "$] text", position: 0},
		{name: "closer in the middle", input: "abc $] def", position: 4},
		{name: "closer after a complete span", input: "[$A$] and $]", position: 10},
		{name: "dangling opener", input: "text [$Name$ more", position: 5},
		{name: "dangling control opener", input: "[$ATGIF$A$1$[$B$]", position: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatchSpans(tt.input)
			require.Error(t, err)
			assert.True(t, IsParseError(err))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.position, pe.Position)
		})
	}
}

func TestIsControlTag(t *testing.T) {
	assert.True(t, IsControlTag("ATGLIST"))
	assert.True(t, IsControlTag("ATGWHATEVER"))
	assert.False(t, IsControlTag("Name"))
	assert.False(t, IsControlTag("atglist"))
}
