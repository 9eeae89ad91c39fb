package services

import (
	"testing"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContributors(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       []string
		wellFormed bool
	}{
		{"empty", "", []string{}, true},
		{"whitespace", "   ", []string{}, true},
		{"array", `["Ada","Linus"]`, []string{"Ada", "Linus"}, true},
		{"blank entries dropped", `[" Ada ", ""]`, []string{"Ada"}, true},
		{"comma separated", "Ada, Linus", []string{}, false},
		{"object", `{"name":"Ada"}`, []string{}, false},
		{"numbers", `[1,2]`, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseContributors(tt.raw, ContributorsLenient)
			require.NoError(t, err)
			assert.Equal(t, tt.wellFormed, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContributorsStrict(t *testing.T) {
	_, _, err := ParseContributors("not json", ContributorsStrict)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	got, ok, err := ParseContributors(`["Ada"]`, ContributorsStrict)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Ada"}, got)
}
