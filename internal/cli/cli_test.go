package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serviceorder "github.com/Additional-Code/bazaar/internal/service/order"
)

func TestParseLineItems(t *testing.T) {
	lines, err := parseLineItems([]string{"1:2:25", "4:1:349"})
	require.NoError(t, err)

	assert.Equal(t, []serviceorder.LineItem{
		{ProductID: 1, Quantity: 2, Price: 25},
		{ProductID: 4, Quantity: 1, Price: 349},
	}, lines)
}

func TestParseLineItemsRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"1:2", "a:2:25", "1:b:25", "1:2:c", ""} {
		_, err := parseLineItems([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestRootCommandWiresSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"start", "setup", "load", "report", "order", "watch", "worker"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
