package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the Instagram Graph API host
	BaseURL = "https://graph.instagram.com"

	// MediaEndpoint lists the authenticated user's media
	MediaEndpoint = "/me/media"

	// RefreshEndpoint refreshes a long-lived access token
	RefreshEndpoint = "/refresh_access_token"

	// MediaFields is the field list requested for every media entry
	MediaFields = "id,media_url,media_type,permalink,timestamp,caption,username,thumbnail_url"

	// RefreshGrantType is the grant type of the refresh endpoint
	RefreshGrantType = "ig_refresh_token"
)

// GetMediaURL constructs the media listing URL
func GetMediaURL(baseURL, token string, limit int) string {
	params := url.Values{}
	params.Set("fields", MediaFields)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("access_token", token)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), MediaEndpoint, params.Encode())
}

// GetRefreshURL constructs the token refresh URL
func GetRefreshURL(baseURL, token string) string {
	params := url.Values{}
	params.Set("grant_type", RefreshGrantType)
	params.Set("access_token", token)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), RefreshEndpoint, params.Encode())
}

// RedactURL masks the access_token query parameter so URLs can be logged
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		return raw
	}
	q.Set("access_token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
