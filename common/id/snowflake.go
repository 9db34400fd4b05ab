package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide Snowflake node. Each binary runs with its
// own node ID (server and watcher must differ) so ids stay unique even when
// both processes write to the same database.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered, globally unique int64 ID. Init must have
// been called; ids double as tiebreakers in keyset pagination, so their
// ordering within one process is monotonic.
func New() int64 {
	if node == nil {
		panic(fmt.Errorf("id: Init not called"))
	}
	return node.Generate().Int64()
}
