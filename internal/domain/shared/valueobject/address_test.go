package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		street      string
		city        string
		country     string
		wantErr     bool
		errContains string
	}{
		{name: "valid address", street: "555 Main St", city: "Vancouver", country: "CA"},
		{name: "lower case country", street: "1 Queen St", city: "Toronto", country: "ca"},
		{name: "empty street", street: "  ", city: "Vancouver", country: "CA", wantErr: true, errContains: "street"},
		{name: "long street", street: strings.Repeat("x", 201), city: "Vancouver", country: "CA", wantErr: true, errContains: "200"},
		{name: "empty city", street: "555 Main St", city: "", country: "CA", wantErr: true, errContains: "city"},
		{name: "invalid country", street: "555 Main St", city: "Vancouver", country: "ZZZ", wantErr: true, errContains: "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.street, tt.city, tt.country)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CA", addr.CountryCode())
			assert.False(t, addr.IsEmpty())
		})
	}
}

func TestAddressOptionsAndString(t *testing.T) {
	addr := MustNewAddress("555 Main St", "Vancouver", "CA",
		WithRecipient(" Ada ", "Lovelace"),
		WithPhoneNumber("604-555-0100"),
		WithSubCountry("BC"),
		WithZipCode("V6B 1A1"),
	)

	assert.Equal(t, "Ada", addr.FirstName())
	assert.Equal(t, "Lovelace", addr.LastName())
	assert.Equal(t, "604-555-0100", addr.PhoneNumber())
	assert.Equal(t, "555 Main St, Vancouver, BC, V6B 1A1, CA", addr.String())
	assert.Equal(t, "", Address{}.String())
}

func TestAddressJSONAndSQL(t *testing.T) {
	addr := MustNewAddress("555 Main St", "Vancouver", "CA", WithRecipient("Ada", "Lovelace"))

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var back Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equals(addr))

	v, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.True(t, scanned.Equals(addr))

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsEmpty())

	empty, err := Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)

	assert.Error(t, scanned.Scan(42))
	assert.Error(t, json.Unmarshal([]byte(`{"street1":"x","city":"y","countryCode":"??"}`), &back))
}
