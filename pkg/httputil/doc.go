// Package httputil provides retry support for remote module retrieval.
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// marked transient with [Transient] (connection failures, 5xx and 429
// responses). Everything else, including content-type and policy
// violations, fails on the first attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Transient(err)
//	    }
//	    ...
//	})
//
// Servers can slow retries down: [TransientAfter] carries the wait from a
// Retry-After header, read with [ParseRetryAfter].
//
// An attempt count of 1 disables retries, which is the crawler's default: a
// network failure aborts the run.
package httputil
