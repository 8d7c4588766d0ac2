package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igsource/pkg/config"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
	"igsource/pkg/source"
)

func testConfig(t *testing.T, graphURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Graph.BaseURL = graphURL
	cfg.Graph.Timeout = 5 * time.Second
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = time.Millisecond
	cfg.RateLimit.RequestsPerMinute = 1000
	return cfg
}

func TestPipelineRunPersistAndReload(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(png)
	}))
	defer cdn.Close()

	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[
			{"id":"17890","media_url":"%[1]s/a.jpg","media_type":"IMAGE","permalink":"https://ig/p/a","timestamp":"2023-01-05T00:00:00+0000","caption":"hello","username":"me"}
		]}`, cdn.URL)
	}))
	defer graph.Close()

	cfg := testConfig(t, graph.URL)
	log := logger.NewTestLogger()

	p, err := newPipeline(cfg, "tok", nil, log)
	require.NoError(t, err)

	result, err := p.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Localized)

	require.NoError(t, p.persist())
	assert.FileExists(t, cfg.NodesPath())

	sdl, err := os.ReadFile(cfg.SchemaPath())
	require.NoError(t, err)
	assert.Contains(t, string(sdl), "type Instagram implements Node")

	// a fresh pipeline sees the persisted nodes and resolves their fields
	reloaded, err := newPipeline(cfg, "", nil, log)
	require.NoError(t, err)
	require.NoError(t, reloaded.source.Publish())

	list := reloaded.store.Nodes("Instagram")
	require.Len(t, list, 1)

	fields, err := reloaded.registry.ResolveAll("Instagram", list[0])
	require.NoError(t, err)

	values := make(map[string]interface{})
	for _, f := range fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "1/5/2023", values[source.FormattedDateField])
	file, ok := values[source.LocalFileField].(*nodes.FileNode)
	require.True(t, ok, "localFile should resolve to a file node")
	assert.Equal(t, "image/png", file.MediaType)
	assert.True(t, strings.HasPrefix(file.AbsolutePath, cfg.CachePath()))

	// an unchanged second cycle reports the node as unchanged
	again, err := newPipeline(cfg, "tok", nil, log)
	require.NoError(t, err)
	result, err = again.source.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unchanged)
}

func TestChangedFlagsOnlyIncludesSetFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&limitFlag, "limit", config.DefaultLimit, "")
	cmd.Flags().BoolVar(&strictDownloads, "strict-downloads", true, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--limit", "12"}))

	flags := changedFlags(cmd)
	assert.Equal(t, map[string]interface{}{"limit": 12}, flags)
}

func TestResolveTokenPrefersConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Token = "from-config"

	token, err := resolveToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-config", token)
}
