// Package files materializes remote assets as local file nodes. Downloads
// are rate limited, retried on transient failures and cached on disk by
// URL, so re-running a sourcing cycle does not fetch unchanged assets again.
package files
