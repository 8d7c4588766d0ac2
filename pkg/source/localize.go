package source

import (
	"context"

	"igsource/pkg/errors"
	"igsource/pkg/files"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
)

// LocalFileField is the node field holding the linked file node id
const LocalFileField = "localFile"

// Localizer downloads a node's image and links it as localFile
type Localizer struct {
	files    files.Materializer
	store    nodes.Store
	typeName string
	logger   logger.Logger
}

// NewLocalizer creates a localizer for nodes of typeName
func NewLocalizer(fm files.Materializer, store nodes.Store, typeName string, log logger.Logger) *Localizer {
	return &Localizer{files: fm, store: store, typeName: typeName, logger: log}
}

// AssetURL returns the URL to localize for node: the thumbnail when present,
// otherwise the media URL
func AssetURL(node *nodes.ContentNode) string {
	if node.ThumbnailURL != "" {
		return node.ThumbnailURL
	}
	return node.URL
}

// Localize materializes the node's asset. It returns (nil, nil) for nodes of
// another type and nodes without any URL. Failures are
// *errors.IntegrationError values from the download stage.
func (l *Localizer) Localize(ctx context.Context, node *nodes.ContentNode) (*nodes.FileNode, error) {
	if node == nil || node.RemoteTypeName != l.typeName {
		return nil, nil
	}

	url := AssetURL(node)
	if url == "" {
		return nil, nil
	}

	file, err := l.files.Materialize(ctx, url, node.ID)
	if err != nil {
		logger.LogDownload(l.logger, node.ID, url, false, err)
		ie := errors.NewIntegrationError(IntegrationName, errors.StageDownload, err)
		ie.NodeID = node.ID
		return nil, ie
	}
	if file == nil {
		return nil, nil
	}

	if err := l.store.AddNodeField(node.ID, LocalFileField, file.ID); err != nil {
		ie := errors.NewIntegrationError(IntegrationName, errors.StageDownload, err)
		ie.NodeID = node.ID
		return nil, ie
	}

	logger.LogDownload(l.logger, node.ID, url, true, nil)
	return file, nil
}
