package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/models"
)

func TestEncodeItemsRef(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "p1", Quantity: 2, Price: 3200},
		{ProductID: "p2", Quantity: 1, Price: 1500},
	}

	ref, err := EncodeItemsRef(items)
	require.NoError(t, err)
	assert.Equal(t, "p1:2,p2:1", ref)
}

func TestEncodeItemsRefDefaultsQuantity(t *testing.T) {
	ref, err := EncodeItemsRef([]models.CartItem{{ProductID: "p1", Quantity: 0}})
	require.NoError(t, err)
	assert.Equal(t, "p1:1", ref)
}

func TestEncodeItemsRefTooLong(t *testing.T) {
	// 100 items with long ids pushes the joined string well past 500 chars.
	items := make([]models.CartItem, 100)
	for i := range items {
		items[i] = models.CartItem{ProductID: strings.Repeat("x", 20), Quantity: 1}
	}

	_, err := EncodeItemsRef(items)
	assert.ErrorIs(t, err, ErrItemsRefTooLong)
}

func TestDecodeItemsRefCompact(t *testing.T) {
	items := DecodeItemsRef("p1:2,p2:1")
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, "p2", items[1].ProductID)
	assert.Equal(t, int64(1), items[1].Quantity)
}

func TestDecodeItemsRefLegacyJSON(t *testing.T) {
	raw := `[{"id":"p1","qty":2,"price":3200},{"id":"p2","quantity":1,"price":1500}]`
	items := DecodeItemsRef(raw)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, int64(3200), items[0].Price)
	assert.Equal(t, int64(1), items[1].Quantity)
	assert.Equal(t, int64(1500), items[1].Price)
}

func TestDecodeItemsRefGarbage(t *testing.T) {
	assert.Empty(t, DecodeItemsRef(""))
	assert.Empty(t, DecodeItemsRef("not metadata"))
	assert.Empty(t, DecodeItemsRef("[]"))
	assert.Empty(t, DecodeItemsRef(`[{"price":100}]`))
}

func TestDecodeItemsRefBadQuantityDefaultsToOne(t *testing.T) {
	items := DecodeItemsRef("p1:abc,p2:-3")
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Quantity)
	assert.Equal(t, int64(1), items[1].Quantity)
}

func TestShippingRefRoundTrip(t *testing.T) {
	addr := &models.ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+15551234567",
		Address:   "12 Analytical Way",
		City:      "London",
		State:     "LDN",
		ZipCode:   "E1 6AN",
		Country:   "GB",
	}

	encoded := EncodeShippingRef(addr)
	require.NotEmpty(t, encoded)
	assert.LessOrEqual(t, len(encoded), 500)

	decoded := DecodeShippingRef(encoded)
	require.NotNil(t, decoded)
	assert.Equal(t, *addr, *decoded)
}

func TestEncodeShippingRefDefaultsCountry(t *testing.T) {
	encoded := EncodeShippingRef(&models.ShippingAddress{FirstName: "Ada", Email: "ada@example.com"})

	var compact map[string]string
	require.NoError(t, json.Unmarshal([]byte(encoded), &compact))
	assert.Equal(t, "US", compact["co"])
}

func TestEncodeShippingRefDegradesToEssentialFields(t *testing.T) {
	addr := &models.ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+15551234567",
		Address:   strings.Repeat("Very Long Street Name ", 30),
		City:      "London",
	}

	encoded := EncodeShippingRef(addr)
	require.NotEmpty(t, encoded)
	assert.LessOrEqual(t, len(encoded), 500)

	decoded := DecodeShippingRef(encoded)
	require.NotNil(t, decoded)
	assert.Equal(t, "Ada", decoded.FirstName)
	assert.Equal(t, "ada@example.com", decoded.Email)
	assert.Equal(t, "+15551234567", decoded.Phone)
	// Everything beyond the essential fields was dropped to fit the cap.
	assert.Empty(t, decoded.Address)
	assert.Empty(t, decoded.City)
	assert.Empty(t, decoded.Country)
}

func TestEncodeShippingRefNil(t *testing.T) {
	assert.Empty(t, EncodeShippingRef(nil))
}

func TestDecodeShippingRefCanonicalForm(t *testing.T) {
	raw := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","city":"London"}`
	decoded := DecodeShippingRef(raw)
	require.NotNil(t, decoded)
	assert.Equal(t, "Ada", decoded.FirstName)
	assert.Equal(t, "London", decoded.City)
}

func TestDecodeShippingRefUndecodable(t *testing.T) {
	assert.Nil(t, DecodeShippingRef(""))
	assert.Nil(t, DecodeShippingRef("not json"))
	assert.Nil(t, DecodeShippingRef("{}"))
	assert.Nil(t, DecodeShippingRef(`{"unknown":"keys"}`))
}
