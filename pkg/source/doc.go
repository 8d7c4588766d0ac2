// Package source imports an Instagram media feed into the content graph.
//
// A cycle runs named stages in order: the Fetcher lists media through the
// Graph API, the Materializer registers one content node per record, then
// the Localizer downloads each node's image through a worker pool while the
// Publisher declares the GraphQL type and its formattedDate resolver.
//
//	src, err := source.New(source.Options{...})
//	result, err := src.Run(ctx)
//
// Integration failures are *errors.IntegrationError values whose message
// reads "Instagram: <cause>". Fatal ones are passed to the reporter's Panic
// and Run returns the resulting *report.FatalError.
package source
