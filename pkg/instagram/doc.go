// Package instagram provides a client for the Instagram Graph API.
//
// The client covers the three calls a sourcing cycle makes: listing the
// authenticated user's media, refreshing a long-lived access token, and
// downloading media files. Failures are returned as *errors.Error values
// typed by cause; Graph API error envelopes keep their original message.
//
// Example usage:
//
//	client := instagram.NewClient(instagram.BaseURL, 30*time.Second, log)
//
//	page, err := client.FetchMedia(ctx, token, 5)
//	if err != nil {
//	    if errors.TypeOf(err) == errors.ErrorTypeAuth {
//	        // token expired or revoked
//	    }
//	}
//
//	for _, record := range page.Data {
//	    data, err := client.Download(ctx, record.MediaURL, 0)
//	    // ...
//	}
package instagram
