package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "clean name unchanged", input: "Breaking Bad (2008)", want: "Breaking Bad (2008)"},
		{name: "colon replaced", input: "Star Trek: Picard", want: "Star Trek_ Picard"},
		{name: "all illegal characters", input: `a<b>c:d"e/f\g|h?i*j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{name: "control character", input: "bad\x01name", want: "bad_name"},
		{name: "trailing dots and spaces", input: "Mr. Robot... ", want: "Mr. Robot"},
		{name: "whitespace runs collapse", input: "  The   Office\t(US)  ", want: "The Office (US)"},
		{name: "non-breaking space collapses", input: "Show\u00a0\u00a0Name", want: "Show Name"},
		{name: "empty becomes placeholder", input: "", want: Placeholder},
		{name: "blank becomes placeholder", input: "   \t ", want: Placeholder},
		{name: "only dots becomes placeholder", input: "...", want: Placeholder},
		{name: "decomposed accent normalized", input: "Poke\u0301mon", want: "Pok\u00e9mon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"...",
		"Show: Name?",
		"Trailing . . .",
		"a \x00 b",
		"Multi\n\nLine",
		"Tab\tSeparated\tWords",
		"Poke\u0301mon",
		"The Return ",
		". leading dot",
		"x" + strings.Repeat(" .", 20),
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
		assert.NotEmpty(t, strings.TrimSpace(once), "input %q", in)
	}
}
