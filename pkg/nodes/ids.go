package nodes

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
)

// IDGenerator derives stable node ids under a per-plugin namespace
type IDGenerator struct {
	namespace uuid.UUID
}

// NewIDGenerator returns a generator whose namespace is derived from seed
func NewIDGenerator(seed string) IDGenerator {
	return IDGenerator{namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed))}
}

// CreateNodeID maps input to a UUIDv5 string. Equal inputs give equal ids.
func (g IDGenerator) CreateNodeID(input string) string {
	return uuid.NewSHA1(g.namespace, []byte(input)).String()
}

// ContentDigest returns the hex MD5 of content
func ContentDigest(content string) string {
	return ContentDigestBytes([]byte(content))
}

// ContentDigestBytes returns the hex MD5 of data
func ContentDigestBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
