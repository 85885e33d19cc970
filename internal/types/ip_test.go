package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPChangeSummary(t *testing.T) {
	change := IPChange{OldIP: "203.0.113.7", NewIP: "198.51.100.23"}
	assert.Equal(t, "203.0.113.7 -> 198.51.100.23", change.Summary())

	first := IPChange{NewIP: "198.51.100.23"}
	assert.Equal(t, "none -> 198.51.100.23", first.Summary())
}
