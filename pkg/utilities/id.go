package utilities

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// ErrInvalidSnowflake is returned by ParseSnowflake for ids that are not a
// positive decimal snowflake.
var ErrInvalidSnowflake = errors.New("invalid snowflake id")

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out snowflake ids from a single node. It is safe for
// concurrent use.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator for the given node id (0..1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

// NextID returns the next snowflake id as an int64.
func (g *IDGenerator) NextID() int64 {
	return g.node.Generate().Int64()
}

// ParseSnowflake parses a decimal snowflake id string.
func ParseSnowflake(s string) (int64, error) {
	id, err := snowflake.ParseString(s)
	if err != nil || id.Int64() <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSnowflake, s)
	}
	return id.Int64(), nil
}
