package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/formkit/pkg/form"
)

func TestSplitElementPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		array string
		index int
		field string
		ok    bool
	}{
		{"activities[2].level", "activities", 2, "level", true},
		{"activities[0]", "activities", 0, "", true},
		{"other.items[10].a.b", "other.items", 10, "a.b", true},
		{"other.sign", "", 0, "", false},
		{"activities[-1].level", "", 0, "", false},
		{"activities[x].level", "", 0, "", false},
		{"activities[1]level", "", 0, "", false},
		{"activities[1].", "", 0, "", false},
		{"[1].level", "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			array, index, field, ok := form.SplitElementPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.array, array)
			assert.Equal(t, tt.index, index)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestElementPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "activities[3].level", form.ElementPath("activities", 3, "level"))
	assert.Equal(t, "activities[0]", form.ElementPath("activities", 0, ""))
}
