// Package remotecheck provides validator.RemoteChecker implementations that
// ask an external collaborator whether a value is acceptable.
//
// HTTP issues a GET request carrying the value as a query parameter and
// expects a JSON body of the form {"answer":"yes"} or {"answer":"no"}:
//
//	checker := remotecheck.NewHTTP("https://names.example.com/check",
//		remotecheck.WithParam("name"),
//		remotecheck.WithClient(client),
//	)
//	rule := validator.Remote(checker).Named("luckyName")
//
// RedisSet answers with SISMEMBER against a Redis set. Set Negate to reject
// members instead, which suits deny lists:
//
//	taken := remotecheck.NewRedisSet(rdb, "formkit:taken-names", remotecheck.Negate())
//
// Every failure to obtain an answer is returned as *validator.TransportError
// so the engine reports it as a transport failure instead of a rejection.
package remotecheck
