// Package formhttp exposes form engines over HTTP.
//
// Every client works on its own form session: POST /forms creates an
// engine from the configured factory and returns its id. Subsequent calls
// drive that engine:
//
//	POST   /forms                          create a session
//	GET    /forms/{id}                     current view
//	DELETE /forms/{id}                     close the session
//	POST   /forms/{id}/change              {"path": "...", "value": ...}
//	POST   /forms/{id}/blur                {"path": "..."}
//	POST   /forms/{id}/validate            {"paths": [...]}, waits for remote rules
//	POST   /forms/{id}/reset
//	POST   /forms/{id}/items/{array}       {"values": {...}}, appends an element
//	DELETE /forms/{id}/items/{array}/{item}
//	POST   /forms/{id}/submit
//	GET    /forms/{id}/stream              datastar stream of view patches
//
// Plain clients receive the view as JSON. Datastar clients receive it as a
// signal patch and may keep /stream open to follow asynchronous validation.
// Idle sessions are closed by Registry.Run. WithCreateMiddleware guards
// session creation, typically with a per-client rate limiter.
package formhttp
