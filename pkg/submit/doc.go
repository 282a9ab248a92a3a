// Package submit provides form.Action implementations that deliver a valid
// form snapshot somewhere.
//
//   - HTTP posts the snapshot as JSON to an endpoint.
//   - Postgres inserts it into the form_submissions table as jsonb.
//   - Mongo inserts it as a document.
//   - HashFields wraps another action and replaces secret fields with their
//     bcrypt hash before delivery.
//
// Actions classify failures the way the form engine expects: when the
// backend cannot be reached they return *validator.TransportError, and when
// it rejects the submission they return *form.SubmissionError.
//
//	action := submit.HashFields(submit.NewPostgres(pool, "signup"), []string{"password"}, "confirm")
//	res, err := engine.Submit(ctx, action)
package submit
