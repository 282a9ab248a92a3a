package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

func stateDefaults() map[string]any {
	return map[string]any{
		"name":   "",
		"gender": "man",
		"other": map[string]any{
			"sign":  "",
			"happy": false,
		},
		"activities": []any{
			map[string]any{"value": "chess", "level": "expert"},
		},
	}
}

func failure(rule string) validator.ValidationErrors {
	return validator.ValidationErrors{{Rule: rule, Kind: validator.Kind(rule), Message: rule + " failed"}}
}

func TestNewState(t *testing.T) {
	t.Parallel()

	s := form.NewState(stateDefaults(), "activities")

	v, ok := s.Value("other.sign")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	v, ok = s.Value("activities[0].level")
	assert.True(t, ok)
	assert.Equal(t, "expert", v)

	_, ok = s.Value("missing")
	assert.False(t, ok)

	assert.Equal(t, stateDefaults(), s.Snapshot())
	assert.False(t, s.Dirty())
	assert.Zero(t, s.SubmitCount())
	assert.Nil(t, s.GlobalError())

	items, err := s.Items("activities")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "activities[0]", items[0].Path)
	assert.NotEmpty(t, items[0].ID)
}

func TestState_SetValue(t *testing.T) {
	t.Parallel()

	t.Run("marks dirty only on change", func(t *testing.T) {
		s := form.NewState(stateDefaults(), "activities")
		require.NoError(t, s.SetValue("gender", "man"))
		assert.False(t, s.Dirty())

		require.NoError(t, s.SetValue("gender", "woman"))
		assert.True(t, s.Dirty())
		v, _ := s.Value("gender")
		assert.Equal(t, "woman", v)
	})

	t.Run("element value", func(t *testing.T) {
		s := form.NewState(stateDefaults(), "activities")
		require.NoError(t, s.SetValue("activities[0].value", "go"))
		assert.Equal(t, "go", s.Values()["activities[0].value"])
	})

	t.Run("rejects whole arrays and bad indices", func(t *testing.T) {
		s := form.NewState(stateDefaults(), "activities")
		assert.ErrorIs(t, s.SetValue("activities", []any{}), form.ErrArrayPath)
		assert.ErrorIs(t, s.SetValue("activities[5].value", "x"), form.ErrUnknownPath)
		assert.ErrorIs(t, s.SetValue("gender[0].x", "x"), form.ErrNotArray)
	})

	t.Run("rejects paths overlapping stored values", func(t *testing.T) {
		s := form.NewState(map[string]any{"other": map[string]any{"sign": "fish"}}, "activities")
		assert.ErrorIs(t, s.SetValue("other", "x"), form.ErrUnknownPath)
		assert.ErrorIs(t, s.SetValue("other.sign.deep", "x"), form.ErrUnknownPath)
		assert.ErrorIs(t, s.SetValue("activities.count", 1), form.ErrUnknownPath)
		require.NoError(t, s.SetValue("other.happy", true))
		assert.Equal(t, map[string]any{"sign": "fish", "happy": true}, s.Snapshot()["other"])
	})

	t.Run("stored values are copies", func(t *testing.T) {
		s := form.NewState(nil)
		tags := []any{"a"}
		require.NoError(t, s.SetValue("tags", tags))
		tags[0] = "changed"
		v, _ := s.Value("tags")
		assert.Equal(t, []any{"a"}, v)
	})
}

func TestState_Errors(t *testing.T) {
	t.Parallel()

	s := form.NewState(stateDefaults(), "activities")

	require.NoError(t, s.SetErrors("name", failure("required")))
	require.NoError(t, s.SetErrors("activities[0].level", failure("none_of")))
	assert.True(t, s.HasErrors())

	errs := s.Errors()
	assert.Len(t, errs, 2)
	assert.Equal(t, "name", errs["name"][0].Field)
	assert.Equal(t, "activities[0].level", errs["activities[0].level"][0].Field)

	t.Run("replaced wholesale", func(t *testing.T) {
		require.NoError(t, s.SetErrors("name", failure("min_length")))
		got := s.FieldErrors("name")
		require.Len(t, got, 1)
		assert.Equal(t, "min_length", got[0].Rule)
	})

	t.Run("empty marks valid", func(t *testing.T) {
		require.NoError(t, s.SetErrors("name", nil))
		assert.Empty(t, s.FieldErrors("name"))
		_, present := s.Errors()["name"]
		assert.False(t, present)
	})

	t.Run("clear drops field and global errors", func(t *testing.T) {
		s.SetGlobalError(form.GlobalKindSubmission, "nope")
		s.ClearErrors()
		assert.False(t, s.HasErrors())
		assert.Nil(t, s.GlobalError())
		assert.Empty(t, s.AllErrors())
	})
}

func TestState_Touched(t *testing.T) {
	t.Parallel()

	s := form.NewState(stateDefaults(), "activities")
	require.NoError(t, s.SetTouched("name"))
	require.NoError(t, s.SetTouched("activities[0].value"))

	assert.True(t, s.IsTouched("name"))
	assert.True(t, s.IsTouched("activities[0].value"))
	assert.False(t, s.IsTouched("gender"))
	assert.Equal(t, []string{"activities[0].value", "name"}, s.View().Touched)
}

func TestState_GlobalError(t *testing.T) {
	t.Parallel()

	s := form.NewState(nil)
	s.SetGlobalError(form.GlobalKindTransport, "offline")

	g := s.GlobalError()
	require.NotNil(t, g)
	assert.Equal(t, form.GlobalError{Kind: "transport", Message: "offline"}, *g)

	g.Message = "mutated"
	assert.Equal(t, "offline", s.GlobalError().Message)

	s.ClearGlobalError()
	assert.Nil(t, s.GlobalError())
}

func TestState_Arrays(t *testing.T) {
	t.Parallel()

	s := form.NewState(map[string]any{"activities": []any{}}, "activities")

	var ids []form.ItemID
	for _, v := range []string{"a", "b", "c", "d"} {
		id, err := s.AppendItem("activities", map[string]any{"value": v, "level": "expert"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, s.SetErrors("activities[1].level", failure("none_of")))
	require.NoError(t, s.SetErrors("activities[3].level", failure("none_of")))
	require.NoError(t, s.SetTouched("activities[1].value"))

	require.NoError(t, s.RemoveItem("activities", ids[1]))

	items, err := s.Items("activities")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []form.ItemID{ids[0], ids[2], ids[3]}, []form.ItemID{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "activities[2]", items[2].Path)

	values := s.Values()
	assert.Equal(t, "c", values["activities[1].value"])
	assert.Equal(t, "d", values["activities[2].value"])
	_, stale := values["activities[3].value"]
	assert.False(t, stale)

	errs := s.Errors()
	assert.Len(t, errs, 1)
	require.Contains(t, errs, "activities[2].level")
	assert.Equal(t, "activities[2].level", errs["activities[2].level"][0].Field)
	assert.False(t, s.IsTouched("activities[1].value"))

	t.Run("unknown item", func(t *testing.T) {
		assert.ErrorIs(t, s.RemoveItem("activities", ids[1]), form.ErrUnknownItem)
		assert.ErrorIs(t, s.RemoveItem("name", ids[0]), form.ErrNotArray)
	})

	t.Run("remove at index", func(t *testing.T) {
		id, err := s.RemoveItemAt("activities", 0)
		require.NoError(t, err)
		assert.Equal(t, ids[0], id)
		_, err = s.RemoveItemAt("activities", 9)
		assert.ErrorIs(t, err, form.ErrUnknownPath)

		idx, ok := s.ItemIndex("activities", ids[3])
		assert.True(t, ok)
		assert.Equal(t, 1, idx)
	})
}

func TestState_Reset(t *testing.T) {
	t.Parallel()

	s := form.NewState(stateDefaults(), "activities")
	before, err := s.Items("activities")
	require.NoError(t, err)

	require.NoError(t, s.SetValue("name", "bob"))
	require.NoError(t, s.SetTouched("name"))
	require.NoError(t, s.SetErrors("name", failure("remote")))
	_, err = s.AppendItem("activities", map[string]any{"value": "x"})
	require.NoError(t, err)
	s.IncrementSubmitCount()
	s.SetGlobalError(form.GlobalKindSubmission, "failed")

	s.Reset(nil)

	assert.Equal(t, stateDefaults(), s.Snapshot())
	assert.False(t, s.Dirty())
	assert.False(t, s.HasErrors())
	assert.False(t, s.IsTouched("name"))
	assert.Zero(t, s.SubmitCount())
	assert.Nil(t, s.GlobalError())

	after, err := s.Items("activities")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.NotEqual(t, before[0].ID, after[0].ID)

	t.Run("new defaults replace the old ones", func(t *testing.T) {
		s.Reset(map[string]any{"name": "alice", "activities": []any{}})
		assert.Equal(t, map[string]any{"name": "alice", "activities": []any{}}, s.Snapshot())
		s.Reset(nil)
		assert.Equal(t, "alice", s.Values()["name"])
	})
}

func TestState_IncrementSubmitCount(t *testing.T) {
	t.Parallel()

	s := form.NewState(nil)
	assert.Equal(t, 1, s.IncrementSubmitCount())
	assert.Equal(t, 2, s.IncrementSubmitCount())
	assert.Equal(t, 2, s.SubmitCount())
}
