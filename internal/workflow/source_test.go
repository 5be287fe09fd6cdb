package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iambrandonn/converse/internal/catalog"
)

const retailSource = `
name: retail
root: Store
contexts:
  Store:
    commands: [store.list_orders]
  Order:
    commands: [orders.cancel]
    bases: ["*"]
commands:
  - name: store.list_orders
    context: Store
    handler: h.list_orders
    description: List open orders.
    examples: ["show my orders"]
  - name: orders.cancel
    context: Order
    handler: h.cancel
    description: Cancel an order.
    examples: ["cancel this order"]
    params:
      reason:
        type: string
        required: true
`

func TestParseSource(t *testing.T) {
	src, err := ParseSource(strings.NewReader(retailSource), "retail.yaml")
	require.NoError(t, err)

	assert.Equal(t, "retail", src.Origin)
	assert.Equal(t, "Store", src.Root)

	require.Len(t, src.Types, 2)
	assert.Equal(t, "Order", src.Types[0].Name)
	assert.Equal(t, []string{"*"}, src.Types[0].Bases)
	assert.Equal(t, "Store", src.Types[1].Name)

	require.Len(t, src.Commands, 2)
	cancel := src.Commands[1]
	assert.Equal(t, "orders.cancel", cancel.QualifiedName)
	assert.Equal(t, "Order", cancel.OwningContext)
	assert.Equal(t, "h.cancel", cancel.Handler)
	require.Contains(t, cancel.Schema, "reason")
	assert.Equal(t, catalog.FieldTypeString, cancel.Schema["reason"].Type)
	assert.True(t, cancel.Schema["reason"].Required)
}

func TestParseSourceOriginFallsBackToPath(t *testing.T) {
	src, err := ParseSource(strings.NewReader("contexts: {}\n"), "base.yaml")
	require.NoError(t, err)
	assert.Equal(t, "base.yaml", src.Origin)
}

func TestParseSourceRejectsUnknownKeys(t *testing.T) {
	_, err := ParseSource(strings.NewReader("name: x\nbogus: true\n"), "x.yaml")
	require.Error(t, err)
}

func TestLoadSourcesComposesFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(retailSource), 0o644))

	sources, err := LoadSources([]string{path})
	require.NoError(t, err)
	require.Len(t, sources, 1)

	comp, err := Compose(stubTable("h.list_orders", "h.cancel"), sources...)
	require.NoError(t, err)

	assert.Equal(t, "Store", comp.Root)

	set, err := comp.Model.Resolve("Order")
	require.NoError(t, err)
	assert.Contains(t, set, "orders.cancel")
	assert.Contains(t, set, CommandNavigateToParent, "wildcard base should pull in universal commands")
}

func TestLoadSourceMissingFile(t *testing.T) {
	_, err := LoadSource(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
