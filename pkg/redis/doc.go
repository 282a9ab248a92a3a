// Package redis connects to Redis with go-redis/v9.
//
// The remote check in pkg/remotecheck answers "is this value allowed?" with
// SISMEMBER against a set maintained by another service; this package
// provides the client it runs on:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	checker := remotecheck.NewRedisSet(client, "formkit:lucky-names")
//
// Connect retries until a PING succeeds. Healthcheck returns a readiness
// probe for the same client.
package redis
