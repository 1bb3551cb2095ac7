package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-api/models"
)

// Stripe caps every metadata value at 500 characters. Both the item
// reference and the shipping reference must fit under that cap.
const metadataValueLimit = 500

// Metadata keys written on session creation.
const (
	metadataKeyUserID   = "userId"
	metadataKeyItems    = "items"
	metadataKeyShipping = "shippingAddress"
)

// ErrItemsRefTooLong means the encoded cart reference exceeds the metadata
// cap; the only remedy is a smaller cart.
var ErrItemsRefTooLong = errors.New("items metadata exceeds 500 characters")

// EncodeItemsRef encodes a cart as "id:qty" pairs joined by commas, e.g.
// "p1:2,p2:1". Prices and names are intentionally dropped; they are recovered
// later from Stripe's line items or a product lookup.
func EncodeItemsRef(items []models.CartItem) (string, error) {
	pairs := make([]string, 0, len(items))
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		pairs = append(pairs, fmt.Sprintf("%s:%d", item.ProductID, qty))
	}
	ref := strings.Join(pairs, ",")
	if len(ref) > metadataValueLimit {
		return "", ErrItemsRefTooLong
	}
	return ref, nil
}

// jsonItemRef is the legacy JSON metadata shape: [{id, qty|quantity, price}].
type jsonItemRef struct {
	ID       string `json:"id"`
	Qty      int64  `json:"qty"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

// DecodeItemsRef reconstructs (id, quantity) pairs from the items metadata
// value. Two formats were written historically, so decoding tries them in
// order: a JSON array of {id, qty|quantity, price} objects, then the compact
// "id1:qty1,id2:qty2" form. Anything else decodes to an empty slice.
func DecodeItemsRef(raw string) []models.CartItem {
	if raw == "" {
		return nil
	}

	var parsed []jsonItemRef
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && len(parsed) > 0 && parsed[0].ID != "" {
		items := make([]models.CartItem, 0, len(parsed))
		for _, ref := range parsed {
			qty := ref.Qty
			if qty == 0 {
				qty = ref.Quantity
			}
			items = append(items, models.CartItem{
				ProductID: ref.ID,
				Quantity:  qty,
				Price:     ref.Price,
			})
		}
		return items
	}

	if !strings.Contains(raw, ":") {
		return nil
	}

	pairs := strings.Split(raw, ",")
	items := make([]models.CartItem, 0, len(pairs))
	for _, pair := range pairs {
		id, qtyStr, _ := strings.Cut(pair, ":")
		qty, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil || qty < 1 {
			qty = 1
		}
		items = append(items, models.CartItem{ProductID: id, Quantity: qty})
	}
	return items
}

// compactShippingAddress is the short-key transport form of an address, used
// only inside checkout metadata.
type compactShippingAddress struct {
	FirstName string `json:"fn"`
	LastName  string `json:"ln"`
	Email     string `json:"e"`
	Phone     string `json:"p"`
	Address   string `json:"a,omitempty"`
	City      string `json:"c,omitempty"`
	State     string `json:"s,omitempty"`
	ZipCode   string `json:"z,omitempty"`
	Country   string `json:"co,omitempty"`
}

// EncodeShippingRef serializes an address in compact form. If the result
// exceeds the metadata cap it degrades to the four essential fields (name,
// email, phone). A nil address encodes to the empty string.
func EncodeShippingRef(addr *models.ShippingAddress) string {
	if addr == nil {
		return ""
	}

	country := addr.Country
	if country == "" {
		country = "US"
	}
	compact := compactShippingAddress{
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Email:     addr.Email,
		Phone:     addr.Phone,
		Address:   addr.Address,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   country,
	}

	encoded, err := json.Marshal(compact)
	if err == nil && len(encoded) <= metadataValueLimit {
		return string(encoded)
	}

	essential := compactShippingAddress{
		FirstName: addr.FirstName,
		LastName:  addr.LastName,
		Email:     addr.Email,
		Phone:     addr.Phone,
	}
	encoded, err = json.Marshal(essential)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// DecodeShippingRef reconstructs a canonical address from the shipping
// metadata value. Metadata may have been written in compact form or, by older
// sessions, in canonical form, so both are tried; nil means undecodable.
func DecodeShippingRef(raw string) *models.ShippingAddress {
	if raw == "" {
		return nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil
	}

	if hasAnyKey(keys, "fn", "ln", "e", "p") {
		var compact compactShippingAddress
		if err := json.Unmarshal([]byte(raw), &compact); err != nil {
			return nil
		}
		return &models.ShippingAddress{
			FirstName: compact.FirstName,
			LastName:  compact.LastName,
			Email:     compact.Email,
			Phone:     compact.Phone,
			Address:   compact.Address,
			City:      compact.City,
			State:     compact.State,
			ZipCode:   compact.ZipCode,
			Country:   compact.Country,
		}
	}

	var canonical models.ShippingAddress
	if err := json.Unmarshal([]byte(raw), &canonical); err != nil {
		return nil
	}
	if canonical == (models.ShippingAddress{}) {
		return nil
	}
	return &canonical
}

func hasAnyKey(keys map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		if _, ok := keys[name]; ok {
			return true
		}
	}
	return false
}
