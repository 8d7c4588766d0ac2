package source

import (
	"context"
	"sync"

	"igsource/pkg/instagram"
	"igsource/pkg/nodes"
)

type fakeClient struct {
	resp  *instagram.MediaResponse
	err   error
	calls int
	token string
	limit int
}

func (f *fakeClient) FetchMedia(ctx context.Context, token string, limit int) (*instagram.MediaResponse, error) {
	f.calls++
	f.token = token
	f.limit = limit
	return f.resp, f.err
}

type fakeFiles struct {
	mu      sync.Mutex
	store   nodes.Store
	fail    map[string]error
	calls   []string
	parents []string
}

func (f *fakeFiles) Materialize(ctx context.Context, url, parentID string) (*nodes.FileNode, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.parents = append(f.parents, parentID)
	err := f.fail[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	file := &nodes.FileNode{
		ID:     "file:" + url,
		Parent: parentID,
		URL:    url,
		Internal: nodes.Internal{
			Type:          nodes.FileTypeName,
			ContentDigest: nodes.ContentDigest(url),
		},
	}
	if f.store != nil {
		if _, err := f.store.CreateFileNode(file); err != nil {
			return nil, err
		}
	}
	return file, nil
}

func (f *fakeFiles) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func record(id, caption string) instagram.MediaRecord {
	return instagram.MediaRecord{
		ID:        id,
		MediaURL:  "https://cdn.example.com/" + id + ".jpg",
		MediaType: instagram.MediaTypeImage,
		Permalink: "https://www.instagram.com/p/" + id,
		Timestamp: "2023-01-05T00:00:00+0000",
		Caption:   caption,
		Username:  "me",
	}
}

func toRecords(records ...instagram.MediaRecord) []instagram.MediaRecord {
	return records
}
