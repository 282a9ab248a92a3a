// Package form implements a form-state engine: a schema of per-field rules,
// a mutable session state and an engine that validates the state on value
// changes, blurs and submits.
//
// # Schema
//
// A Schema maps field paths to FieldSchema values. Rules are the tagged
// descriptors of pkg/validator; a field runs them in order under a policy,
// CollectAll or FirstFailure. Fields using EqualsOneOf, or declaring
// DependsOn, are re-validated whenever the referenced field changes.
//
//	schema := form.MustSchema(
//	    form.Field("password", validator.Required(), validator.MinLength(5)),
//	    form.Field("confirmPassword", validator.Required(), validator.EqualsOneOf("password")),
//	    form.Array("activities", form.Element(
//	        form.Field("level", validator.NoneOf("beginner")),
//	    ), map[string]any{"level": "expert"}),
//	)
//
// Schemas may also be loaded from YAML with LoadSchemaYAML.
//
// # Engine
//
//	engine, err := form.New(schema, defaults, form.WithLogger(log))
//	_ = engine.Change(ctx, "password", "abcde")
//	_ = engine.Blur(ctx, "password")
//	res, err := engine.Submit(ctx, action)
//
// Synchronous rules are applied before Change returns. Remote rules run in
// the background; each trigger stamps the field with a sequence number and
// a result is written only if its stamp is still the latest, so a slow
// response never overwrites the outcome of a newer edit.
//
// # Arrays
//
// Elements of array fields are identified by ItemID. Values, errors and
// touched flags are stored per item, and element paths such as
// "activities[2].level" are derived from the current order, so removing an
// element never leaves its errors at a stale index.
//
// # Submission
//
// Submit validates every field and array element. An invalid form never
// reaches the Action. A failing Action sets the global error and keeps the
// values; a successful one resets the form to its defaults. Only one
// submission runs at a time; a concurrent call gets ErrSubmitInProgress.
package form
