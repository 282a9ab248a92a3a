// Package mongo connects to MongoDB with the official v2 driver for the
// document submission store.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	coll := client.Database(cfg.Database).Collection(cfg.Collection)
//	action := submit.NewMongo(coll, "signup")
//
// New retries the initial connection; Healthcheck returns a readiness probe.
// Errors wrap ErrFailedToConnectToMongo and ErrHealthcheckFailed so callers
// can match them with errors.Is.
package mongo
