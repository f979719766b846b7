package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// The server and worker must use distinct node IDs.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered int64 ID for stored rows and replay batches.
func New() int64 {
	return node.Generate().Int64()
}

// NewEventID returns a fresh logical event identifier for write-path callers
// that did not supply one. The same value is shared by the API and EVENT
// records of one operation.
func NewEventID() string {
	return uuid.NewString()
}
