package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestInitialSchemaSeedsSettings(t *testing.T) {
	raw, err := fs.ReadFile(FS, "0001_init.up.sql")
	require.NoError(t, err)
	schema := string(raw)

	for _, table := range []string{
		"clients", "menu_items", "app_settings", "quotations", "quotation_items",
		"orders", "order_items", "invoices", "invoice_items", "payments",
		"delivery_orders", "delivery_order_items", "credit_notes", "credit_note_items",
		"audit_logs", "idempotency_keys",
	} {
		assert.Contains(t, schema, "CREATE TABLE "+table+" (")
	}
	assert.Contains(t, schema, "INSERT INTO app_settings (id) VALUES (1);")
}
