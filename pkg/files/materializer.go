package files

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"igsource/pkg/errors"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
	"igsource/pkg/ratelimit"
	"igsource/pkg/retry"

	"github.com/gabriel-vasile/mimetype"
)

// Materializer turns a remote URL into a FileNode registered in the store
type Materializer interface {
	Materialize(ctx context.Context, url, parentID string) (*nodes.FileNode, error)
}

// Downloader fetches the bytes at a URL
type Downloader interface {
	Download(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// Options configures a RemoteFileMaterializer
type Options struct {
	Downloader  Downloader
	Cache       *Cache
	Store       nodes.Store
	IDs         nodes.IDGenerator
	Owner       string
	Limiter     ratelimit.Limiter
	Retry       *retry.Config
	MaxFileSize int64
	Timeout     time.Duration
	Logger      logger.Logger
}

// RemoteFileMaterializer downloads remote assets into the cache and creates
// a FileNode for each. Cached URLs are not downloaded again.
type RemoteFileMaterializer struct {
	downloader  Downloader
	cache       *Cache
	store       nodes.Store
	ids         nodes.IDGenerator
	owner       string
	limiter     ratelimit.Limiter
	retry       *retry.Config
	maxFileSize int64
	timeout     time.Duration
	logger      logger.Logger
}

// NewRemoteFileMaterializer validates opts and builds a materializer
func NewRemoteFileMaterializer(opts Options) (*RemoteFileMaterializer, error) {
	if opts.Downloader == nil {
		return nil, fmt.Errorf("file materializer: downloader is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("file materializer: cache is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("file materializer: store is required")
	}

	m := &RemoteFileMaterializer{
		downloader:  opts.Downloader,
		cache:       opts.Cache,
		store:       opts.Store,
		ids:         opts.IDs,
		owner:       opts.Owner,
		limiter:     opts.Limiter,
		retry:       opts.Retry,
		maxFileSize: opts.MaxFileSize,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
	if m.limiter == nil {
		m.limiter = ratelimit.Unlimited{}
	}
	if m.logger == nil {
		m.logger = logger.GetLogger()
	}
	if m.retry == nil {
		m.retry = &retry.Config{MaxAttempts: 1, Logger: m.logger}
	}
	return m, nil
}

// Materialize downloads rawURL (or reuses the cached copy) and registers a
// FileNode whose parent is parentID
func (m *RemoteFileMaterializer) Materialize(ctx context.Context, rawURL, parentID string) (*nodes.FileNode, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid file url %q", rawURL)
	}

	key := nodes.ContentDigest(rawURL)
	log := m.logger.WithFields(map[string]interface{}{
		"parent_id": parentID,
		"cache_key": key,
	})

	var data []byte
	filePath, cached := m.cache.Lookup(key)
	if cached {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached file: %w", err)
		}
		log.Debug("Using cached file")
	} else {
		data, err = m.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		filePath, err = m.cache.Save(data, key, extensionFor(u, data))
		if err != nil {
			return nil, err
		}
		log.WithField("size", len(data)).Debug("File cached")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}
	ext := filepath.Ext(absPath)

	file := &nodes.FileNode{
		ID:           m.ids.CreateNodeID(rawURL),
		Parent:       parentID,
		URL:          rawURL,
		AbsolutePath: absPath,
		Name:         strings.TrimSuffix(filepath.Base(absPath), ext),
		Ext:          ext,
		MediaType:    mimetype.Detect(data).String(),
		Size:         int64(len(data)),
		Internal: nodes.Internal{
			Type:          nodes.FileTypeName,
			ContentDigest: nodes.ContentDigestBytes(data),
			Owner:         m.owner,
		},
	}

	if _, err := m.store.CreateFileNode(file); err != nil {
		return nil, fmt.Errorf("failed to register file node: %w", err)
	}

	return file, nil
}

func (m *RemoteFileMaterializer) download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		return m.downloader.Download(ctx, rawURL, m.maxFileSize)
	}, m.retry)
}

// extensionFor prefers the extension in the URL path and falls back to the
// detected content type
func extensionFor(u *url.URL, data []byte) string {
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != "" && len(ext) <= 6 {
		return ext
	}
	return mimetype.Detect(data).Extension()
}

// IsTooLarge reports whether err was caused by the size limit
func IsTooLarge(err error) bool {
	return errors.TypeOf(err) == errors.ErrorTypeTooLarge
}
