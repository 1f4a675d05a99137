package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node    *snowflake.Node
	nodeErr error
	once    sync.Once
)

// Init initializes the Snowflake node with the given node ID. Only the first
// call takes effect; later calls return its result.
func Init(nodeID int64) error {
	once.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	return nodeErr
}

// New returns a time-ordered unique message ID. It lazily initializes node 0
// when Init was never called, which is what tests and the CLI rely on.
func New() int64 {
	if err := Init(0); err != nil {
		panic(fmt.Sprintf("id: snowflake node unavailable: %v", err))
	}
	return node.Generate().Int64()
}
