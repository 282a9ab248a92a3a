// Package binder populates request structs for the handler package.
//
//   - JSON decodes a strict JSON body into struct fields with json tags.
//   - Path copies router URL parameters into string fields tagged `path:"name"`.
//   - Signals decodes the signals a datastar client sends with every request.
//
// Binders are applied in order by handler.Wrap. A binder returns
// ErrBinderNotApplicable when the request does not carry the input it
// handles, letting the next one take over.
package binder
