package nodes

// Internal carries host bookkeeping for a node
type Internal struct {
	Type          string `json:"type"`
	Content       string `json:"content,omitempty"`
	ContentDigest string `json:"contentDigest"`
	Owner         string `json:"owner,omitempty"`
}

// ContentNode is one media item registered in the content graph
type ContentNode struct {
	ID             string            `json:"id"`
	URL            string            `json:"url,omitempty"`
	Permalink      string            `json:"permalink"`
	Caption        string            `json:"caption,omitempty"`
	Username       string            `json:"username"`
	MediaType      string            `json:"mediaType"`
	ThumbnailURL   string            `json:"thumbnailUrl,omitempty"`
	Timestamp      string            `json:"timestamp"`
	RemoteTypeName string            `json:"remoteTypeName"`
	Internal       Internal          `json:"internal"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// Field returns the value of an attached field
func (n *ContentNode) Field(name string) (string, bool) {
	v, ok := n.Fields[name]
	return v, ok
}

func (n *ContentNode) clone() *ContentNode {
	c := *n
	if n.Fields != nil {
		c.Fields = make(map[string]string, len(n.Fields))
		for k, v := range n.Fields {
			c.Fields[k] = v
		}
	}
	return &c
}

// FileNode is a local copy of a remote asset
type FileNode struct {
	ID           string   `json:"id"`
	Parent       string   `json:"parent,omitempty"`
	URL          string   `json:"url"`
	AbsolutePath string   `json:"absolutePath"`
	Name         string   `json:"name"`
	Ext          string   `json:"ext"`
	MediaType    string   `json:"mediaType"`
	Size         int64    `json:"size"`
	Internal     Internal `json:"internal"`
}

// FileTypeName is the node type of every FileNode
const FileTypeName = "File"

// Change describes what CreateNode did with a node
type Change int

const (
	Created Change = iota
	Updated
	Unchanged
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}
