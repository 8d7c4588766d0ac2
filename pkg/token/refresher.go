package token

import (
	"context"

	"igsource/pkg/errors"
	"igsource/pkg/instagram"
	"igsource/pkg/logger"
)

// Client is the part of the Graph API client the refresher needs
type Client interface {
	RefreshAccessToken(ctx context.Context, token string) (*instagram.RefreshResponse, error)
}

// RefreshResult is a successful refresh
type RefreshResult struct {
	AccessToken string
	TokenType   string
	// ExpiresIn is the lifetime of the new token in seconds, 0 when unknown
	ExpiresIn int64
}

// Refresher exchanges a long-lived token for a refreshed one
type Refresher struct {
	client Client
	logger logger.Logger
}

// NewRefresher creates a refresher over client
func NewRefresher(client Client, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Refresher{client: client, logger: log.WithField("component", "token_refresher")}
}

// Refresh returns the refreshed token, or ("", false) on any failure
func (r *Refresher) Refresh(ctx context.Context, token string) (string, bool) {
	result, ok := r.RefreshWithResult(ctx, token)
	if !ok {
		return "", false
	}
	return result.AccessToken, true
}

// RefreshWithResult is Refresh with the token lifetime attached
func (r *Refresher) RefreshWithResult(ctx context.Context, token string) (*RefreshResult, bool) {
	if token == "" {
		r.logger.Warn("no access token to refresh")
		return nil, false
	}

	resp, err := r.client.RefreshAccessToken(ctx, token)
	if err != nil {
		ierr := errors.NewIntegrationError("Instagram", errors.StageRefresh, err)
		r.logger.WithError(ierr).ErrorWithFields("failed to refresh access token", map[string]interface{}{
			"error_type": string(errors.TypeOf(err)),
		})
		return nil, false
	}
	if resp == nil || resp.AccessToken == "" {
		r.logger.Error("refresh response did not contain an access token")
		return nil, false
	}

	r.logger.InfoWithFields("access token refreshed", map[string]interface{}{
		"expires_in": resp.ExpiresIn,
	})

	return &RefreshResult{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, true
}
