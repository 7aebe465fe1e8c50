// Package kumpul coordinates client-side network requests: callers submit
// requests identified by a logical request type, and the coordinator makes
// sure only one underlying transfer is in flight per type, fanning the
// eventual result out to every caller who asked for that type while the
// transfer was outstanding.
//
//   - Coalescing – duplicate submissions of an in-flight type never trigger
//     a second transport call
//   - Fan-out – one terminal outcome per submitted call, delivered on the
//     caller's chosen delivery context
//   - Bounded retries – failed transfers are resubmitted after a fixed delay
//     while budget and interested waiters both remain
//   - Per-caller cancellation – cancelling one caller's interest does not
//     abort a transfer still wanted by others
//   - Bounded concurrency – a fixed-size worker pool caps simultaneous
//     transfers
//   - Prometheus metrics and lightweight structured debug logging
//
// The transport exchange, response validation and body parsing are pluggable
// collaborators supplied per request; the default transport is a shared
// net/http client.
//
// Typical usage:
//
//	coord := kumpul.New(
//	    kumpul.WithWorkerCount(6),
//	    kumpul.WithRetryDelay(2*time.Second),
//	    kumpul.WithMetrics(),
//	)
//	defer coord.Close()
//
//	req := kumpul.NewRequest("user-profile", kumpul.Descriptor{
//	    URL: "https://api.example.com/users/42",
//	})
//	req.RetryLimit = 2
//	req.Parse = kumpul.JSONParser[User]()
//
//	coord.Submit(req, nil, kumpul.OnResult(func(u User, err error) {
//	    ...
//	}))
//
// Every submitted call receives exactly one Outcome: a parsed value, a typed
// failure, or a cancellation. A single Coordinator is safe for concurrent
// use from any number of goroutines.
package kumpul
