package instagram

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strings"
	"testing"
	"time"

	"igsource/pkg/errors"
	"igsource/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	return NewClient(server.URL, 5*time.Second, log), log
}

func TestNewClient(t *testing.T) {
	client := NewClient("", 30*time.Second, logger.NewTestLogger())

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, BaseURL, client.BaseURL())
	assert.Equal(t, "application/json", client.headers["Accept"])

	client.SetHeader("X-Test", "1")
	assert.Equal(t, "1", client.headers["X-Test"])
}

func TestFetchMedia(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, MediaEndpoint, r.URL.Path)
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"data":[
			{"id":"a","media_url":"https://cdn/a.jpg","media_type":"IMAGE","permalink":"https://ig/p/a","timestamp":"2023-01-05T00:00:00+0000","username":"me"},
			{"id":"b","media_url":"https://cdn/b.mp4","media_type":"VIDEO","permalink":"https://ig/p/b","timestamp":"2023-01-06T00:00:00+0000","caption":"hi","username":"me","thumbnail_url":"https://cdn/b.jpg"}
		],"paging":{"cursors":{"before":"x","after":"y"}}}`)
	})

	page, err := client.FetchMedia(context.Background(), "tok", 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)

	assert.Equal(t, "a", page.Data[0].ID)
	assert.Empty(t, page.Data[0].Caption)
	assert.Equal(t, "hi", page.Data[1].Caption)
	assert.Equal(t, "https://cdn/b.jpg", page.Data[1].ThumbnailURL)
	assert.Equal(t, MediaTypeVideo, page.Data[1].MediaType)

	assert.Len(t, gotQuery, 3)
	assert.Equal(t, []string{MediaFields}, gotQuery["fields"])
	assert.Equal(t, []string{"2"}, gotQuery["limit"])
	assert.Equal(t, []string{"tok"}, gotQuery["access_token"])
}

func TestFetchMediaEmptyData(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	page, err := client.FetchMedia(context.Background(), "tok", 5)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestFetchMediaGraphError(t *testing.T) {
	client, log := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid OAuth access token - Cannot parse access token","type":"OAuthException","code":190,"fbtrace_id":"abc"}}`)
	})

	_, err := client.FetchMedia(context.Background(), "bad", 5)
	require.Error(t, err)

	assert.Equal(t, "Invalid OAuth access token - Cannot parse access token", err.Error())
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
	assert.True(t, log.HasMessage("graph API error"))
}

func TestFetchMediaStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected errors.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrorTypeAuth},
		{"not found", http.StatusNotFound, errors.ErrorTypeNotFound},
		{"rate limit", http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{"server error", http.StatusBadGateway, errors.ErrorTypeServerError},
		{"teapot", http.StatusTeapot, errors.ErrorTypeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchMedia(context.Background(), "tok", 5)
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err))

			var apiErr *errors.Error
			require.True(t, stderrors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestFetchMediaInvalidJSON(t *testing.T) {
	client, log := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [`)
	})

	_, err := client.FetchMedia(context.Background(), "tok", 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
	assert.True(t, log.HasMessage("failed to parse JSON response"))
}

func TestFetchMediaNetworkError(t *testing.T) {
	client := NewClient(BaseURL, time.Second, logger.NewTestLogger())
	client.SetHTTPClient(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, stderrors.New("connection refused")
	}))

	_, err := client.FetchMedia(context.Background(), "tok", 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTokenIsNotLogged(t *testing.T) {
	client, log := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := client.FetchMedia(context.Background(), "very-secret", 5)
	require.NoError(t, err)

	for _, msg := range log.GetMessages() {
		for _, v := range msg.Fields {
			assert.NotContains(t, fmt.Sprint(v), "very-secret")
		}
	}
}

func TestTokenIsNotLoggedOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	log := logger.NewTestLogger()
	client := NewClient(server.URL, 5*time.Second, log)

	_, err := client.FetchMedia(context.Background(), "very-secret-token", 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.NotContains(t, err.Error(), "very-secret-token")
	assert.Contains(t, err.Error(), "REDACTED")

	require.NotEmpty(t, log.GetMessagesByLevel("ERROR"))
	for _, msg := range log.GetMessages() {
		for _, v := range msg.Fields {
			assert.NotContains(t, fmt.Sprint(v), "very-secret-token")
		}
	}
}

func TestRedactError(t *testing.T) {
	err := &neturl.Error{
		Op:  "Get",
		URL: "https://graph.instagram.com/me/media?access_token=abc123&limit=5",
		Err: stderrors.New("connection refused"),
	}

	msg := redactError(err, "abc123")
	assert.NotContains(t, msg, "abc123")
	assert.True(t, strings.HasPrefix(msg, "Get https://graph.instagram.com/me/media?"))
	assert.Contains(t, msg, "access_token=REDACTED")
	assert.True(t, strings.HasSuffix(msg, ": connection refused"))

	assert.Equal(t, "dial REDACTED failed", redactError(stderrors.New("dial abc123 failed"), "abc123"))
	assert.Equal(t, "plain", redactError(stderrors.New("plain"), ""))
}

func TestRefreshAccessToken(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RefreshEndpoint, r.URL.Path)
		assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old", r.URL.Query().Get("access_token"))
		fmt.Fprint(w, `{"access_token":"new","token_type":"bearer","expires_in":5183944}`)
	})

	resp, err := client.RefreshAccessToken(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "new", resp.AccessToken)
	assert.Equal(t, int64(5183944), resp.ExpiresIn)
}

func TestRefreshAccessTokenMissingToken(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token_type":"bearer"}`)
	})

	_, err := client.RefreshAccessToken(context.Background(), "old")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
}

func TestDownload(t *testing.T) {
	payload := bytes.Repeat([]byte{0xff}, 64)
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	data, err := client.Download(context.Background(), client.BaseURL()+"/a.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadTooLarge(t *testing.T) {
	client := NewClient(BaseURL, time.Second, logger.NewTestLogger())
	client.SetHTTPClient(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		// unknown length so the limit is enforced while reading
		return &http.Response{
			StatusCode:    http.StatusOK,
			Body:          io.NopCloser(strings.NewReader(strings.Repeat("x", 100))),
			Header:        make(http.Header),
			ContentLength: -1,
			Request:       req,
		}, nil
	}))

	_, err := client.Download(context.Background(), "https://cdn.example.com/big.jpg", 10)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeTooLarge, errors.TypeOf(err))

	data, err := client.Download(context.Background(), "https://cdn.example.com/big.jpg", 100)
	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestDownloadNotFound(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.Download(context.Background(), client.BaseURL()+"/missing.jpg", 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
}

func TestDownloadCancelledContext(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Download(ctx, client.BaseURL()+"/a.jpg", 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
}
