package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Address is a value object representing a postal address of a customer.
// It is immutable - all operations return new Address instances
type Address struct {
	firstName   string
	lastName    string
	phoneNumber string
	street1     string
	street2     string
	city        string
	subCountry  string
	zipCode     string
	countryCode string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithRecipient sets the first and last name on the address
func WithRecipient(firstName, lastName string) AddressOption {
	return func(a *Address) {
		a.firstName = strings.TrimSpace(firstName)
		a.lastName = strings.TrimSpace(lastName)
	}
}

// WithPhoneNumber sets the phone number
func WithPhoneNumber(phone string) AddressOption {
	return func(a *Address) {
		a.phoneNumber = strings.TrimSpace(phone)
	}
}

// WithStreet2 sets the second street line
func WithStreet2(street2 string) AddressOption {
	return func(a *Address) {
		a.street2 = strings.TrimSpace(street2)
	}
}

// WithSubCountry sets the state or province
func WithSubCountry(subCountry string) AddressOption {
	return func(a *Address) {
		a.subCountry = strings.TrimSpace(subCountry)
	}
}

// WithZipCode sets the postal code
func WithZipCode(zip string) AddressOption {
	return func(a *Address) {
		a.zipCode = strings.TrimSpace(zip)
	}
}

// NewAddress creates a new Address. Street, city and a two letter ISO country
// code are required.
func NewAddress(street1, city, countryCode string, opts ...AddressOption) (Address, error) {
	street1 = strings.TrimSpace(street1)
	city = strings.TrimSpace(city)

	if street1 == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(street1) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	region, err := language.ParseRegion(strings.TrimSpace(countryCode))
	if err != nil || !region.IsCountry() {
		return Address{}, fmt.Errorf("invalid country code %q", countryCode)
	}

	addr := Address{
		street1:     street1,
		city:        city,
		countryCode: region.String(),
	}
	for _, opt := range opts {
		opt(&addr)
	}
	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(street1, city, countryCode string, opts ...AddressOption) Address {
	addr, err := NewAddress(street1, city, countryCode, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// FirstName returns the recipient first name
func (a Address) FirstName() string { return a.firstName }

// LastName returns the recipient last name
func (a Address) LastName() string { return a.lastName }

// PhoneNumber returns the phone number
func (a Address) PhoneNumber() string { return a.phoneNumber }

// Street1 returns the first street line
func (a Address) Street1() string { return a.street1 }

// Street2 returns the second street line
func (a Address) Street2() string { return a.street2 }

// City returns the city
func (a Address) City() string { return a.city }

// SubCountry returns the state or province
func (a Address) SubCountry() string { return a.subCountry }

// ZipCode returns the postal code
func (a Address) ZipCode() string { return a.zipCode }

// CountryCode returns the ISO 3166 country code
func (a Address) CountryCode() string { return a.countryCode }

// IsEmpty returns true if the address has no street and no city
func (a Address) IsEmpty() bool {
	return a.street1 == "" && a.city == ""
}

// String returns a single line representation
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 6)
	for _, p := range []string{a.street1, a.street2, a.city, a.subCountry, a.zipCode, a.countryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a == other
}

type addressJSON struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city"`
	SubCountry  string `json:"subCountry,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	CountryCode string `json:"countryCode"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		FirstName:   a.firstName,
		LastName:    a.lastName,
		PhoneNumber: a.phoneNumber,
		Street1:     a.street1,
		Street2:     a.street2,
		City:        a.city,
		SubCountry:  a.subCountry,
		ZipCode:     a.zipCode,
		CountryCode: a.countryCode,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Validation goes through NewAddress;
// a document without street and city decodes to the empty address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Street1 == "" && v.City == "" {
		*a = Address{}
		return nil
	}
	addr, err := NewAddress(v.Street1, v.City, v.CountryCode,
		WithRecipient(v.FirstName, v.LastName),
		WithPhoneNumber(v.PhoneNumber),
		WithStreet2(v.Street2),
		WithSubCountry(v.SubCountry),
		WithZipCode(v.ZipCode),
	)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer; the address is stored as a JSON document
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case string:
		return a.UnmarshalJSON([]byte(v))
	case []byte:
		return a.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
