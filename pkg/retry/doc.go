// Package retry provides exponential backoff and retry logic for transient
// failures in network operations.
//
// Typed errors from the errors package are retried only when their type is
// transient (network, rate limit, server error); context cancellation stops
// retrying immediately.
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	data, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return client.Download(ctx, url, 0)
//	}, cfg)
package retry
