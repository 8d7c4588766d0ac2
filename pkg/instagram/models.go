package instagram

// Media types reported by the Graph API
const (
	MediaTypeImage         = "IMAGE"
	MediaTypeVideo         = "VIDEO"
	MediaTypeCarouselAlbum = "CAROUSEL_ALBUM"
)

// MediaRecord is one entry of the /me/media listing, exactly as the API
// returns it. Caption and ThumbnailURL are empty when absent.
type MediaRecord struct {
	ID           string `json:"id"`
	MediaURL     string `json:"media_url,omitempty"`
	MediaType    string `json:"media_type"`
	Permalink    string `json:"permalink"`
	Timestamp    string `json:"timestamp"`
	Caption      string `json:"caption,omitempty"`
	Username     string `json:"username"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// MediaResponse is the top-level response of the media listing endpoint
type MediaResponse struct {
	Data   []MediaRecord `json:"data"`
	Paging *Paging       `json:"paging,omitempty"`
}

// Paging holds the cursors of a listing page
type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next,omitempty"`
}

// RefreshResponse is returned by the token refresh endpoint
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// ErrorResponse is the error envelope the Graph API returns with non-2xx
// statuses
type ErrorResponse struct {
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
