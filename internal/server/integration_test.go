package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/repositories"
)

func startPostgres(t *testing.T) *database.DatabaseInstance {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "ecommerce_db",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	logger := logging.Nop()
	db, err := database.Open(ctx, database.Options{
		Driver: "postgres",
		DSN: fmt.Sprintf("host=%s port=%s user=user password=password dbname=ecommerce_db sslmode=disable",
			host, port.Port()),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: filepath.Join("..", "..", "db", "pg"),
	})
	require.NoError(t, migrations.Up(db.SQLDB()))
	return db
}

func writeFixtures(t *testing.T) ingest.Paths {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Customers.csv": "customer_id,customer_zip_code_prefix,customer_city,customer_state\n" +
			"c1,01037,campinas,SP\n" +
			"c2,58075,recife,PE\n" +
			"c3,NA,NA,NA\n" +
			"c1,01037,campinas,SP\n",
		"Orders.csv": "order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_timestamp,order_estimated_delivery_date\n" +
			"o1,c1,delivered,2017-10-02T10:56:33,2017-10-02T11:07:15,2017-10-10T21:25:13,2017-10-18\n" +
			"o2,c2,shipped,2018-07-24T20:41:37,,,2018-08-13\n" +
			"o3,c2,delivered,2018-08-08T08:38:49,2018-08-08T08:55:23,2018-08-17T18:06:29,2018-09-04\n" +
			"o4,c3,shipped,,,,2018-08-13\n" +
			"o5,c3,canceled,notadate,,,2018-08-13\n",
		"OrderItems.csv": "order_id,product_id,seller_id,price,shipping_charges\n" +
			"o1,p1,s1,58.90,13.29\n" +
			"o2,p2,s2,239.90,19.93\n" +
			"o3,p1,s1,199.00,17.87\n" +
			"o4,p2,s3,10,1\n" +
			"o3,p2,s2,-5,1\n",
		"Products.csv": "product_id,product_category_name,product_weight_g,product_length_cm,product_height_cm,product_width_cm\n" +
			"p1,toys,500,19,8,13\n" +
			"p2,garden,,,,\n",
		"Payments.csv": "order_id,payment_sequential,payment_type,payment_installments,payment_value\n" +
			"o1,1,credit_card,2,72.19\n" +
			"o2,1,voucher,1,259.83\n" +
			"o3,1,boleto,0,216.87\n" +
			"o4,1,boleto,1,11\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return ingest.DefaultPaths(dir)
}

func countRows(t *testing.T, db database.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestIngestAndQuery(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	logger := logging.Nop()
	paths := writeFixtures(t)

	loader := ingest.NewLoader(db, logger, 2)
	report, err := ingest.NewPipeline(loader, logger).Run(ctx, ingest.Options{Paths: paths})
	require.NoError(t, err)

	expected := map[string]int64{
		ingest.TableCustomers:  3,
		ingest.TableSellers:    2,
		ingest.TableProducts:   2,
		ingest.TableOrders:     3,
		ingest.TableOrderItems: 3,
		ingest.TablePayments:   2,
	}
	for table, n := range expected {
		assert.Equal(t, n, report.Table(table).Written, table)
		assert.Equal(t, n, countRows(t, db, table), table)
	}

	t.Run("referential integrity", func(t *testing.T) {
		var orphans int64
		require.NoError(t, db.GetContext(ctx, &orphans,
			"SELECT COUNT(*) FROM order_items i WHERE NOT EXISTS (SELECT 1 FROM orders o WHERE o.order_id = i.order_id)"))
		assert.Zero(t, orphans)
		require.NoError(t, db.GetContext(ctx, &orphans,
			"SELECT COUNT(*) FROM payments p WHERE NOT EXISTS (SELECT 1 FROM orders o WHERE o.order_id = p.order_id)"))
		assert.Zero(t, orphans)

		var negative int64
		require.NoError(t, db.GetContext(ctx, &negative,
			"SELECT COUNT(*) FROM order_items WHERE price < 0 OR shipping_charges < 0"))
		assert.Zero(t, negative)
	})

	t.Run("missing tokens stored as null", func(t *testing.T) {
		var city *string
		require.NoError(t, db.GetContext(ctx, &city, "SELECT customer_city FROM customers WHERE customer_id = $1", "c3"))
		assert.Nil(t, city)

		var zip string
		require.NoError(t, db.GetContext(ctx, &zip, "SELECT customer_zip_code_prefix FROM customers WHERE customer_id = $1", "c1"))
		assert.Equal(t, "01037", zip)
	})

	srv := server.New(&config.Config{AppName: "fern-api", AllowOrigins: []string{"*"}}, logger, server.Repositories{
		Customers: repositories.NewCustomerRepository(db, logger, 5*time.Second),
		Orders:    repositories.NewOrderRepository(db, logger, 5*time.Second),
		Notes:     repositories.NewNoteRepository(db, logger, 5*time.Second),
	}, nil)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	t.Run("order status counts sum to orders", func(t *testing.T) {
		rec := do(http.MethodGet, "/stats/order-status", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var counts []models.OrderStatusCount
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
		require.Len(t, counts, 2)
		assert.Equal(t, "delivered", *counts[0].Status)
		assert.Equal(t, int64(2), counts[0].Count)

		var total int64
		for _, c := range counts {
			total += c.Count
		}
		assert.Equal(t, countRows(t, db, "orders"), total)
	})

	t.Run("customers", func(t *testing.T) {
		rec := do(http.MethodGet, "/customers?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list []models.CustomerSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 2)

		rec = do(http.MethodGet, "/customers/c1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var customer models.Customer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customer))
		assert.Equal(t, "c1", customer.CustomerID)
		require.NotNil(t, customer.City)
		assert.Equal(t, "campinas", *customer.City)

		rec = do(http.MethodGet, "/customers/nobody", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("notes round trip", func(t *testing.T) {
		rec := do(http.MethodPost, "/notes", `{"note":"first"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "first", created.Note)
		assert.NotZero(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		rec = do(http.MethodPost, "/notes", `{"note":"second"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(http.MethodGet, "/notes?limit=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var notes []models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
		require.Len(t, notes, 1)
		assert.Equal(t, "second", notes[0].Note)
	})

	t.Run("second run appends", func(t *testing.T) {
		_, err := ingest.NewPipeline(loader, logger).Run(ctx, ingest.Options{Paths: paths})
		require.NoError(t, err)
		for table, n := range expected {
			assert.Equal(t, 2*n, countRows(t, db, table), table)
		}
	})

	t.Run("reset keeps notes", func(t *testing.T) {
		require.NoError(t, loader.Reset(ctx))
		for table := range expected {
			assert.Zero(t, countRows(t, db, table), table)
		}
		assert.Equal(t, int64(2), countRows(t, db, "api_notes"))
	})
}
