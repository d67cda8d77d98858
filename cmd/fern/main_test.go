package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
)

func TestResolvePaths(t *testing.T) {
	cfg := &config.Config{
		DataDir:        "Data_sets",
		CustomersFile:  "Customers.csv",
		OrdersFile:     "Orders.csv",
		OrderItemsFile: "OrderItems.csv",
		ProductsFile:   "Products.csv",
		PaymentsFile:   "/srv/exports/Payments.csv",
	}

	paths := resolvePaths(cfg, ingestOptions{})
	assert.Equal(t, filepath.Join("Data_sets", "Customers.csv"), paths.Customers)
	assert.Equal(t, "/srv/exports/Payments.csv", paths.Payments)

	paths = resolvePaths(cfg, ingestOptions{dataDir: "/tmp/in", orders: "orders-2018.xlsx"})
	assert.Equal(t, filepath.Join("/tmp/in", "Customers.csv"), paths.Customers)
	assert.Equal(t, "orders-2018.xlsx", paths.Orders)
	assert.Equal(t, filepath.Join("/tmp/in", "OrderItems.csv"), paths.OrderItems)
}

func TestResetRequiresConfirmation(t *testing.T) {
	a := &app{}
	defer a.close()

	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"reset"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestCommands(t *testing.T) {
	cmd := newRootCmd(&app{})
	for _, name := range []string{"serve", "ingest", "migrate", "reset"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	ingest, _, err := cmd.Find([]string{"ingest"})
	require.NoError(t, err)
	for _, flag := range []string{"data-dir", "customers", "orders", "order-items", "products", "payments", "dry-run", "batch-size"} {
		assert.NotNil(t, ingest.Flags().Lookup(flag), flag)
	}
}
