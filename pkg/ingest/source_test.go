package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestRead_CSV(t *testing.T) {
	data := "\ufeffcustomer_id,customer_zip_code_prefix,customer_city\nc1,01037,campinas\n\nc2,NA\n"
	table, err := Read("Customers.csv", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	idCol, err := table.Column("customer_id")
	require.NoError(t, err)
	zipCol, err := table.Column("customer_zip_code_prefix")
	require.NoError(t, err)
	cityCol := table.OptionalColumn("customer_city")

	assert.Equal(t, "c2", table.Cell(1, idCol))
	zip, ok := table.Value(0, zipCol)
	require.True(t, ok)
	assert.Equal(t, "01037", zip)

	_, ok = table.Value(1, zipCol)
	assert.False(t, ok, "NA reads as missing")
	_, ok = table.Value(1, cityCol)
	assert.False(t, ok, "short record reads as missing")

	assert.Equal(t, -1, table.OptionalColumn("customer_state"))
	_, err = table.Column("customer_state")
	assert.ErrorContains(t, err, "Customers.csv")
}

func TestRead_SemicolonDelimited(t *testing.T) {
	data := "order_id;price;shipping_charges\no1;10.5;2\no2;3;0\n"
	table, err := Read("OrderItems.csv", []byte(data))
	require.NoError(t, err)

	priceCol, err := table.Column("price")
	require.NoError(t, err)
	assert.Equal(t, "10.5", table.Cell(0, priceCol))
}

func TestRead_Empty(t *testing.T) {
	_, err := Read("Orders.csv", nil)
	assert.Error(t, err)
}

func TestRead_BlankOrUnreadable(t *testing.T) {
	for name, data := range map[string]string{
		"newline only":        "\n",
		"blank lines":         "\r\n\r\n",
		"whitespace":          "  \t \n",
		"unterminated header": "\"customer_id,customer_city\n1,x\n",
	} {
		t.Run(name, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = Read("Customers.csv", []byte(data))
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Customers.csv")
		})
	}
}

func TestRead_XLSX(t *testing.T) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	require.NoError(t, err)
	for _, values := range [][]string{
		{"product_id", "product_category_name"},
		{"p1", "toys"},
		{"p2", ""},
	} {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "Products.xlsx")
	require.NoError(t, file.Save(path))

	table, err := ReadFile("Products.xlsx", path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	idCol, err := table.Column("product_id")
	require.NoError(t, err)
	assert.Equal(t, "p2", table.Cell(1, idCol))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile("Payments.csv", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
