package nodes

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"igsource/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(id, caption string) *ContentNode {
	return &ContentNode{
		ID:             id,
		URL:            "https://cdn.example.com/" + id + ".jpg",
		Permalink:      "https://www.instagram.com/p/" + id,
		Caption:        caption,
		Username:       "me",
		MediaType:      "IMAGE",
		Timestamp:      "2023-01-05T00:00:00+0000",
		RemoteTypeName: "Instagram",
		Internal: Internal{
			Type:          "Instagram",
			Content:       caption,
			ContentDigest: ContentDigest(caption),
		},
	}
}

func TestCreateNodeReportsChange(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())

	change, err := store.CreateNode(testNode("Instagram:a", "one"))
	require.NoError(t, err)
	assert.Equal(t, Created, change)

	change, err = store.CreateNode(testNode("Instagram:a", "one"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, change)

	change, err = store.CreateNode(testNode("Instagram:a", "two"))
	require.NoError(t, err)
	assert.Equal(t, Updated, change)

	assert.Len(t, store.Nodes("Instagram"), 1)
}

func TestCreateNodeValidation(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())

	_, err := store.CreateNode(&ContentNode{})
	assert.Error(t, err)

	n := testNode("Instagram:a", "")
	n.Internal.Type = ""
	_, err = store.CreateNode(n)
	assert.Error(t, err)

	n = testNode("Instagram:a", "")
	n.Internal.ContentDigest = ""
	_, err = store.CreateNode(n)
	assert.Error(t, err)
}

func TestNodesKeepCreationOrder(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	for _, id := range []string{"c", "a", "b"} {
		_, err := store.CreateNode(testNode(id, id))
		require.NoError(t, err)
	}

	var ids []string
	for _, n := range store.Nodes("") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Empty(t, store.Nodes("Other"))
}

func TestAddNodeField(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	_, err := store.CreateNode(testNode("a", ""))
	require.NoError(t, err)

	require.NoError(t, store.AddNodeField("a", "localFile", "file-1"))
	require.NoError(t, store.AddNodeField("a", "localFile", "file-1"))

	err = store.AddNodeField("a", "localFile", "file-2")
	assert.True(t, errors.Is(err, ErrFieldAlreadySet))

	err = store.AddNodeField("missing", "localFile", "file-1")
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	node, ok := store.GetNode("a")
	require.True(t, ok)
	v, ok := node.Field("localFile")
	assert.True(t, ok)
	assert.Equal(t, "file-1", v)
}

func TestRecreateResetsFields(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	_, _ = store.CreateNode(testNode("a", ""))
	require.NoError(t, store.AddNodeField("a", "localFile", "file-1"))

	_, _ = store.CreateNode(testNode("a", ""))
	node, _ := store.GetNode("a")
	_, ok := node.Field("localFile")
	assert.False(t, ok)
}

func TestGetNodeReturnsCopy(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	_, _ = store.CreateNode(testNode("a", "caption"))
	require.NoError(t, store.AddNodeField("a", "localFile", "f"))

	node, _ := store.GetNode("a")
	node.Caption = "mutated"
	node.Fields["localFile"] = "other"

	again, _ := store.GetNode("a")
	assert.Equal(t, "caption", again.Caption)
	assert.Equal(t, "f", again.Fields["localFile"])
}

func TestDeleteStale(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	for _, id := range []string{"a", "b", "c"} {
		_, _ = store.CreateNode(testNode(id, id))
	}
	_, err := store.CreateFileNode(&FileNode{ID: "fb", Parent: "b", Internal: Internal{Type: FileTypeName, ContentDigest: "x"}})
	require.NoError(t, err)

	removed := store.DeleteStale("Instagram", []string{"a", "c"})
	assert.Equal(t, []string{"b"}, removed)

	_, ok := store.GetNode("b")
	assert.False(t, ok)
	_, ok = store.GetFileNode("fb")
	assert.False(t, ok)
	assert.Len(t, store.Nodes(""), 2)
}

func TestConcurrentAddNodeField(t *testing.T) {
	store := NewMemoryStore(logger.NewNopLogger())
	for i := 0; i < 20; i++ {
		_, _ = store.CreateNode(testNode(fmt.Sprintf("n%d", i), ""))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.AddNodeField(fmt.Sprintf("n%d", i), "localFile", fmt.Sprintf("f%d", i)))
		}(i)
	}
	wg.Wait()

	for _, n := range store.Nodes("Instagram") {
		assert.NotEmpty(t, n.Fields["localFile"])
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nodes.json")

	store := NewMemoryStore(logger.NewTestLogger())
	_, _ = store.CreateNode(testNode("b", "second"))
	_, _ = store.CreateNode(testNode("a", ""))
	_, _ = store.CreateFileNode(&FileNode{ID: "f", Parent: "a", Name: "x", Ext: ".jpg", Internal: Internal{Type: FileTypeName, ContentDigest: "d"}})
	require.NoError(t, store.AddNodeField("a", "localFile", "f"))

	require.NoError(t, store.Save(path))
	assert.True(t, Exists(path))
	assert.False(t, Exists(path+".tmp"))

	loaded := NewMemoryStore(logger.NewTestLogger())
	require.NoError(t, loaded.Load(path))

	got := loaded.Nodes("")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "f", got[1].Fields["localFile"])

	file, ok := loaded.GetFileNode("f")
	require.True(t, ok)
	assert.Equal(t, ".jpg", file.Ext)

	change, err := loaded.CreateNode(testNode("b", "second"))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, change)
}

func TestLoadMissingSnapshot(t *testing.T) {
	store := NewMemoryStore(logger.NewTestLogger())
	require.NoError(t, store.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, store.Nodes(""))
}
