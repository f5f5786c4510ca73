package performance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolab/folio/internal/models"
)

func d(t *testing.T, s string) (date time.Time) {
	t.Helper()
	date, err := models.ParseDate(s)
	require.NoError(t, err)
	return date
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buyOrder(t *testing.T, symbol, date, qty, price, fee string) models.Order {
	t.Helper()
	return models.Order{
		Symbol: symbol, DataSource: "YAHOO", Date: d(t, date), Type: models.OrderTypeBuy,
		Quantity: dec(qty), UnitPrice: dec(price), Fee: dec(fee), Currency: "CHF",
	}
}

func sellOrder(t *testing.T, symbol, date, qty, price, fee string) models.Order {
	t.Helper()
	order := buyOrder(t, symbol, date, qty, price, fee)
	order.Type = models.OrderTypeSell
	return order
}

func TestBuildTransactionPoints_BuyAccumulation(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "BALN.SW", "2021-11-30", "2", "136.60", "1.55"),
		buyOrder(t, "BALN.SW", "2022-03-07", "2", "146.00", "1.65"),
	}

	points := buildTransactionPoints(orders)
	require.Len(t, points, 2)

	first := points[0].Items[0]
	assert.True(t, first.Quantity.Equal(dec("2")))
	assert.True(t, first.Investment.Equal(dec("273.20")))
	assert.True(t, first.AveragePrice.Equal(dec("136.60")))
	assert.Equal(t, "2021-11-30", models.DateKey(first.FirstBuyDate))

	second := points[1].Items[0]
	assert.True(t, second.Quantity.Equal(dec("4")))
	assert.True(t, second.Investment.Equal(dec("565.20")))
	assert.True(t, second.AveragePrice.Equal(dec("141.30")))
	assert.True(t, second.Fee.Equal(dec("3.20")))
	assert.Equal(t, 2, second.TransactionCount)
	assert.Equal(t, "2021-11-30", models.DateKey(second.FirstBuyDate), "first buy date survives later buys")
}

func TestBuildTransactionPoints_SellRemovesCostBasisAtAverage(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "BALN.SW", "2021-11-30", "2", "100.00", "0"),
		buyOrder(t, "BALN.SW", "2022-01-10", "2", "150.00", "0"),
		sellOrder(t, "BALN.SW", "2022-03-07", "1", "160.00", "0"),
	}

	points := buildTransactionPoints(orders)
	require.Len(t, points, 3)

	// Average price after both buys is 125; selling one unit removes exactly
	// 125 of cost basis regardless of the sale price.
	last := points[2].Items[0]
	assert.True(t, last.Quantity.Equal(dec("3")))
	assert.True(t, last.Investment.Equal(dec("375.00")))
	assert.True(t, last.AveragePrice.Equal(dec("125.00")))
}

func TestBuildTransactionPoints_CloseToExactZero(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "BALN.SW", "2021-11-22", "2", "142.90", "1.55"),
		sellOrder(t, "BALN.SW", "2021-11-30", "2", "136.60", "1.65"),
	}

	points := buildTransactionPoints(orders)
	require.Len(t, points, 2)

	closed := points[1].Items[0]
	assert.True(t, closed.Quantity.IsZero())
	assert.True(t, closed.Investment.IsZero(), "closing a position zeroes investment exactly")
	assert.True(t, closed.AveragePrice.IsZero())
	assert.True(t, closed.Fee.Equal(dec("3.20")), "fees keep accumulating")
}

func TestBuildTransactionPoints_Dividend(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "BALN.SW", "2021-11-30", "2", "136.60", "0"),
		{
			Symbol: "BALN.SW", DataSource: "YAHOO", Date: d(t, "2022-05-02"),
			Type: models.OrderTypeDividend, Quantity: dec("2"), UnitPrice: dec("7.00"),
			Fee: decimal.Zero, Currency: "CHF",
		},
	}

	points := buildTransactionPoints(orders)
	require.Len(t, points, 2)

	item := points[1].Items[0]
	assert.True(t, item.Dividend.Equal(dec("14.00")))
	assert.True(t, item.Quantity.Equal(dec("2")), "dividends leave the position untouched")
	assert.True(t, item.Investment.Equal(dec("273.20")))
}

func TestBuildTransactionPoints_SameDateMergesAndSymbolsSort(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "NOVN.SW", "2022-03-07", "2", "75.80", "1.30"),
		buyOrder(t, "BALN.SW", "2022-03-07", "2", "146.00", "1.65"),
	}

	points := buildTransactionPoints(orders)
	require.Len(t, points, 1, "same-date orders merge into one point")
	require.Len(t, points[0].Items, 2)
	assert.Equal(t, "BALN.SW", points[0].Items[0].Symbol)
	assert.Equal(t, "NOVN.SW", points[0].Items[1].Symbol)
}

func TestBuildTransactionPoints_UnsortedInputAndCallerSliceUntouched(t *testing.T) {
	orders := []models.Order{
		buyOrder(t, "BALN.SW", "2022-03-07", "2", "146.00", "0"),
		buyOrder(t, "BALN.SW", "2021-11-30", "2", "136.60", "0"),
	}
	originalFirst := orders[0].Date

	points := buildTransactionPoints(orders)
	require.Len(t, points, 2)
	assert.Equal(t, "2021-11-30", models.DateKey(points[0].Date))
	assert.Equal(t, originalFirst, orders[0].Date, "caller's slice is not reordered")
}

func TestBuildTransactionPoints_Empty(t *testing.T) {
	assert.Empty(t, buildTransactionPoints(nil))
}
