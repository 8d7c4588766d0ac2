package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"igsource/pkg/config"
	"igsource/pkg/errors"
	"igsource/pkg/files"
	"igsource/pkg/instagram"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
	"igsource/pkg/report"
	"igsource/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	source   *Source
	store    *nodes.MemoryStore
	files    *fakeFiles
	registry *schema.Registry
	reporter *report.LogReporter
	client   *fakeClient
}

func newHarness(t *testing.T, client *fakeClient, strict bool, fail map[string]error) *harness {
	t.Helper()
	log := logger.NewTestLogger()
	store := nodes.NewMemoryStore(log)
	ff := &fakeFiles{store: store, fail: fail}
	registry := schema.NewRegistry(store)
	reporter := report.NewLogReporter(log)

	cfg := config.SourceConfig{Token: "tok", Limit: 5, Locale: "en", Type: "Instagram"}
	cfg.SetStrict(strict)

	src, err := New(Options{
		Config:      cfg,
		Concurrency: 2,
		Client:      client,
		Store:       store,
		IDs:         nodes.NewIDGenerator("igsource"),
		Files:       ff,
		Schema:      registry,
		Reporter:    reporter,
		Logger:      log,
	})
	require.NoError(t, err)

	return &harness{source: src, store: store, files: ff, registry: registry, reporter: reporter, client: client}
}

func page(records ...instagram.MediaRecord) *fakeClient {
	return &fakeClient{resp: &instagram.MediaResponse{Data: records}}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRunRequiresToken(t *testing.T) {
	h := newHarness(t, page(), true, nil)
	h.source.cfg.Token = ""

	_, err := h.source.Run(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Equal(t, 0, h.client.calls)
}

func TestRunCreatesNodesInOrder(t *testing.T) {
	h := newHarness(t, page(record("a", ""), record("b", "second")), true, nil)

	result, err := h.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Localized)
	assert.Empty(t, result.Failed)

	stored := h.store.Nodes("Instagram")
	require.Len(t, stored, 2)
	assert.Equal(t, h.source.materializer.NodeID("a"), stored[0].ID)
	assert.Equal(t, h.source.materializer.NodeID("b"), stored[1].ID)
	assert.Equal(t, nodes.ContentDigest(""), stored[0].Internal.ContentDigest)
	assert.Equal(t, nodes.ContentDigest("second"), stored[1].Internal.ContentDigest)

	for _, n := range stored {
		assert.NotEmpty(t, n.Fields[LocalFileField])
	}

	_, ok := h.registry.Type("Instagram")
	assert.True(t, ok)
}

func TestRunEmptyFetchIsNoop(t *testing.T) {
	h := newHarness(t, page(), true, nil)

	result, err := h.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Fetched)
	assert.Empty(t, h.store.Nodes(""))
	assert.Empty(t, h.files.urls())
}

func TestRunFetchFailureHalts(t *testing.T) {
	client := &fakeClient{err: &errors.Error{Type: errors.ErrorTypeAuth, Message: "Invalid OAuth access token"}}
	h := newHarness(t, client, true, nil)

	result, err := h.source.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var fatal *report.FatalError
	require.True(t, stderrors.As(err, &fatal))
	assert.True(t, errors.IsIntegrationError(err, errors.StageFetch))
	assert.Contains(t, err.Error(), "Instagram: Invalid OAuth access token")

	assert.Empty(t, h.store.Nodes(""))
	assert.Empty(t, h.files.urls())
	assert.Equal(t, 1, h.reporter.Count(report.SeverityFatal))
}

func TestRunStrictDownloadFailure(t *testing.T) {
	fail := map[string]error{"https://cdn.example.com/b.jpg": &errors.Error{Type: errors.ErrorTypeNotFound, Message: "resource not found"}}
	h := newHarness(t, page(record("a", ""), record("b", ""), record("c", "")), true, fail)

	result, err := h.source.Run(context.Background())
	require.Error(t, err)

	var fatal *report.FatalError
	require.True(t, stderrors.As(err, &fatal))
	assert.True(t, errors.IsIntegrationError(err, errors.StageDownload))
	assert.Contains(t, err.Error(), "Instagram: resource not found")
	assert.Equal(t, []string{h.source.materializer.NodeID("b")}, result.Failed)
	assert.Equal(t, 1, h.reporter.Count(report.SeverityFatal))

	// nodes were created before localization started
	assert.Len(t, h.store.Nodes("Instagram"), 3)
}

func TestRunDownloadFailureIsFatalByDefault(t *testing.T) {
	log := logger.NewTestLogger()
	store := nodes.NewMemoryStore(log)
	ff := &fakeFiles{store: store, fail: map[string]error{
		"https://cdn.example.com/a.jpg": &errors.Error{Type: errors.ErrorTypeNotFound, Message: "resource not found"},
	}}
	reporter := report.NewLogReporter(log)

	src, err := New(Options{
		Config:   config.SourceConfig{Token: "tok"},
		Client:   page(record("a", "")),
		Store:    store,
		IDs:      nodes.NewIDGenerator("igsource"),
		Files:    ff,
		Schema:   schema.NewRegistry(store),
		Reporter: reporter,
		Logger:   log,
	})
	require.NoError(t, err)

	_, err = src.Run(context.Background())
	require.Error(t, err)

	var fatal *report.FatalError
	assert.True(t, stderrors.As(err, &fatal))
	assert.True(t, errors.IsIntegrationError(err, errors.StageDownload))
	assert.Equal(t, 1, reporter.Count(report.SeverityFatal))
}

func TestRunRelaxedDownloadFailure(t *testing.T) {
	fail := map[string]error{"https://cdn.example.com/b.jpg": &errors.Error{Type: errors.ErrorTypeNotFound, Message: "resource not found"}}
	h := newHarness(t, page(record("a", ""), record("b", ""), record("c", "")), false, fail)

	result, err := h.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Localized)
	assert.Equal(t, []string{h.source.materializer.NodeID("b")}, result.Failed)
	assert.Equal(t, 1, h.reporter.Count(report.SeverityError))
	assert.Equal(t, 0, h.reporter.Count(report.SeverityFatal))

	for _, n := range h.store.Nodes("Instagram") {
		_, linked := n.Field(LocalFileField)
		assert.Equal(t, n.ID != h.source.materializer.NodeID("b"), linked, n.ID)
	}
}

func TestRunRemovesStaleNodes(t *testing.T) {
	h := newHarness(t, page(record("a", ""), record("b", "")), true, nil)
	_, err := h.source.Run(context.Background())
	require.NoError(t, err)

	h.client.resp = &instagram.MediaResponse{Data: []instagram.MediaRecord{record("b", "")}}
	result, err := h.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 1, result.Unchanged)

	stored := h.store.Nodes("Instagram")
	require.Len(t, stored, 1)
	assert.Equal(t, h.source.materializer.NodeID("b"), stored[0].ID)
}

// TestRunEndToEnd wires the real client, file materializer, store and
// schema against fake Graph API and CDN servers.
func TestRunEndToEnd(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	var cdnHits int32
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cdnHits, 1)
		w.Write(png)
	}))
	defer cdn.Close()

	var query string
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprintf(w, `{"data":[
			{"id":"a","media_url":"%[1]s/a.jpg","media_type":"IMAGE","permalink":"https://ig/p/a","timestamp":"2023-01-05T00:00:00+0000","username":"me"},
			{"id":"b","media_url":"%[1]s/b.mp4","media_type":"VIDEO","permalink":"https://ig/p/b","timestamp":"2023-01-06T00:00:00+0000","caption":"beach","username":"me","thumbnail_url":"%[1]s/b.jpg"}
		]}`, cdn.URL)
	}))
	defer graph.Close()

	log := logger.NewTestLogger()
	client := instagram.NewClient(graph.URL, 5*time.Second, log)
	store := nodes.NewMemoryStore(log)
	cache, err := files.NewCache(t.TempDir())
	require.NoError(t, err)
	fm, err := files.NewRemoteFileMaterializer(files.Options{
		Downloader: client,
		Cache:      cache,
		Store:      store,
		IDs:        nodes.NewIDGenerator("igsource-files"),
		Owner:      Owner,
		Logger:     log,
	})
	require.NoError(t, err)
	registry := schema.NewRegistry(store)

	src, err := New(Options{
		Config:      config.SourceConfig{Token: "tok", Limit: 2, Locale: "en", Type: "Instagram"},
		Concurrency: 2,
		Client:      client,
		Store:       store,
		IDs:         nodes.NewIDGenerator("igsource"),
		Files:       fm,
		Schema:      registry,
		Reporter:    report.NewLogReporter(log),
		Logger:      log,
	})
	require.NoError(t, err)

	result, err := src.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Localized)
	assert.Contains(t, query, "limit=2")
	assert.Contains(t, query, "access_token=tok")

	stored := store.Nodes("Instagram")
	require.Len(t, stored, 2)
	a, b := stored[0], stored[1]
	assert.Equal(t, nodes.ContentDigest(""), a.Internal.ContentDigest)
	assert.Equal(t, "beach", b.Caption)

	v, err := registry.Resolve("Instagram", FormattedDateField, a)
	require.NoError(t, err)
	assert.Equal(t, "1/5/2023", v)

	v, err = registry.Resolve("Instagram", LocalFileField, b)
	require.NoError(t, err)
	file, ok := v.(*nodes.FileNode)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(file.URL, "/b.jpg"))
	assert.Equal(t, b.ID, file.Parent)
	assert.Equal(t, "image/png", file.MediaType)

	data, err := os.ReadFile(file.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	// a second cycle reuses the cache and leaves nodes unchanged
	again, err := src.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Unchanged)
	assert.Equal(t, int32(2), atomic.LoadInt32(&cdnHits))
}
