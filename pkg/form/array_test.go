package form_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/form"
)

func TestEngine_Array(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not an array", func(t *testing.T) {
		e := newTestEngine(t, nil)
		_, err := e.Array("name")
		assert.ErrorIs(t, err, form.ErrNotArray)
		_, err = e.Array("missing")
		assert.ErrorIs(t, err, form.ErrNotArray)
	})

	t.Run("append uses item defaults and starts valid", func(t *testing.T) {
		e := newTestEngine(t, nil)
		arr, err := e.Array("activities")
		require.NoError(t, err)

		id, err := arr.Append(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []form.ItemRef{{ID: id, Index: 0, Path: "activities[0]"}}, arr.List())

		v, _ := e.State().Value("activities[0].level")
		assert.Equal(t, "expert", v)
		assert.False(t, e.State().HasErrors())
		assert.True(t, e.State().Dirty())

		other, err := arr.Append(ctx, map[string]any{"value": "chess", "level": "beginner"})
		require.NoError(t, err)
		assert.NotEqual(t, id, other)
		assert.False(t, e.State().HasErrors())
	})

	t.Run("removing item k re-indexes the rest without orphans", func(t *testing.T) {
		const n, k = 5, 2

		e := newTestEngine(t, nil)
		arr, err := e.Array("activities")
		require.NoError(t, err)

		ids := make([]form.ItemID, n)
		for i := range n {
			ids[i], err = arr.Append(ctx, nil)
			require.NoError(t, err)
			require.NoError(t, e.Change(ctx, form.ElementPath("activities", i, "value"), string(rune('a'+i))))
			require.NoError(t, e.Change(ctx, form.ElementPath("activities", i, "level"), "beginner"))
		}
		require.Len(t, e.State().Errors(), n)

		require.NoError(t, arr.Remove(ctx, ids[k]))
		require.Equal(t, n-1, arr.Len())

		for i, ref := range arr.List() {
			want := i
			if i >= k {
				want = i + 1
			}
			assert.Equal(t, ids[want], ref.ID)
			assert.Equal(t, form.ElementPath("activities", i, ""), ref.Path)

			v, ok := e.State().Value(form.ElementPath("activities", i, "value"))
			assert.True(t, ok)
			assert.Equal(t, string(rune('a'+want)), v)
		}

		errs := e.State().Errors()
		assert.Len(t, errs, n-1)
		assert.NotContains(t, errs, form.ElementPath("activities", n-1, "level"))
		for path, fieldErrs := range errs {
			assert.Equal(t, path, fieldErrs[0].Field)
		}
		values := e.State().Values()
		assert.NotContains(t, values, form.ElementPath("activities", n-1, "value"))
		for _, v := range values {
			assert.NotEqual(t, string(rune('a'+k)), v)
		}

		_, ok := e.State().ItemIndex("activities", ids[k])
		assert.False(t, ok)
		assert.ErrorIs(t, arr.Remove(ctx, ids[k]), form.ErrUnknownItem)
	})

	t.Run("errors follow their item after removal", func(t *testing.T) {
		e := newTestEngine(t, nil)
		arr, err := e.Array("activities")
		require.NoError(t, err)

		_, err = arr.Append(ctx, nil)
		require.NoError(t, err)
		second, err := arr.Append(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, e.Change(ctx, "activities[1].level", "beginner"))

		id, err := arr.RemoveAt(ctx, 0)
		require.NoError(t, err)
		assert.NotEqual(t, second, id)

		errs := e.State().FieldErrors("activities[0].level")
		require.Len(t, errs, 1)
		assert.Equal(t, "none_of", errs[0].Rule)
		assert.Equal(t, "activities[0].level", errs[0].Field)

		_, err = arr.RemoveAt(ctx, 3)
		assert.ErrorIs(t, err, form.ErrUnknownPath)
	})

	t.Run("pending remote result of a removed item is dropped", func(t *testing.T) {
		checker := newGatedChecker()
		schema := form.MustSchema(form.Array("tags", form.Element(
			form.Field("name", validatorRemote(checker)),
		), nil))
		e, err := form.New(schema, map[string]any{"tags": []any{}})
		require.NoError(t, err)
		t.Cleanup(func() { _ = e.Close() })

		arr, err := e.Array("tags")
		require.NoError(t, err)
		id, err := arr.Append(ctx, map[string]any{"name": ""})
		require.NoError(t, err)
		_, err = arr.Append(ctx, map[string]any{"name": ""})
		require.NoError(t, err)

		require.NoError(t, e.Change(ctx, "tags[0].name", "gone"))
		<-checker.started
		require.NoError(t, arr.Remove(ctx, id))

		checker.release("gone", false)
		e.Wait()
		assert.False(t, e.State().HasErrors())
	})

	t.Run("submit validates every element", func(t *testing.T) {
		e := newTestEngine(t, nil)
		arr, err := e.Array("activities")
		require.NoError(t, err)
		_, err = arr.Append(ctx, map[string]any{"value": "", "level": "beginner"})
		require.NoError(t, err)

		ok, err := e.Trigger(ctx, "activities")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, e.State().Errors(), "activities[0].level")
	})
}
