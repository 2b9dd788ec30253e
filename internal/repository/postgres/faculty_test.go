package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern_EscapesMetacharacters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "plain", query: "rao", want: `%rao%`},
		{name: "percent", query: "%", want: `%\%%`},
		{name: "underscore", query: "roll_no", want: `%roll\_no%`},
		{name: "backslash", query: `a\b`, want: `%a\\b%`},
		{name: "empty", query: "", want: `%%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.query))
		})
	}
}
