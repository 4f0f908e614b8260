package cart

import (
	"sort"
	"time"

	"golang.org/x/text/language"
)

// ProductTypeGiftCertificate is the product type name of purchasable gift certificates
const ProductTypeGiftCertificate = "GiftCertificate"

// LocalizedNames maps BCP 47 language tags to display names
type LocalizedNames map[string]string

// Resolve returns the name best matching locale, or fallback when nothing matches
func (n LocalizedNames) Resolve(locale language.Tag, fallback string) string {
	if len(n) == 0 {
		return fallback
	}

	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]language.Tag, 0, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, n[k])
	}
	if len(tags) == 0 {
		return fallback
	}

	_, idx, confidence := language.NewMatcher(tags).Match(locale)
	if confidence == language.No {
		return fallback
	}
	return names[idx]
}

// Product is the catalog product a sku belongs to
type Product struct {
	Code         string         `json:"code" validate:"required"`
	Name         string         `json:"name"`
	DisplayNames LocalizedNames `json:"displayNames,omitempty"`
	TaxCode      string         `json:"taxCode"`
	TypeName     string         `json:"typeName"`
	MinOrderQty  int            `json:"minOrderQty" validate:"gte=0"`
}

// DisplayName returns the product name for locale
func (p *Product) DisplayName(locale language.Tag) string {
	return p.DisplayNames.Resolve(locale, p.Name)
}

// SkuOptionValue is one selected option of a sku, such as a size or a colour
type SkuOptionValue struct {
	OptionKey    string         `json:"optionKey"`
	Value        string         `json:"value"`
	DisplayNames LocalizedNames `json:"displayNames,omitempty"`
}

// DisplayName returns the option value name for locale
func (o SkuOptionValue) DisplayName(locale language.Tag) string {
	return o.DisplayNames.Resolve(locale, o.Value)
}

// ProductSku is a purchasable variant of a product
type ProductSku struct {
	SkuCode      string           `json:"skuCode" validate:"required"`
	Product      *Product         `json:"product" validate:"required"`
	Shippable    bool             `json:"shippable"`
	DigitalAsset bool             `json:"digitalAsset"`
	Image        string           `json:"image,omitempty"`
	StartDate    *time.Time       `json:"startDate,omitempty"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
	OptionValues []SkuOptionValue `json:"optionValues,omitempty"`
}

// IsWithinDateRange reports whether the sku can be sold at now
func (s *ProductSku) IsWithinDateRange(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && !now.Before(*s.EndDate) {
		return false
	}
	return true
}

// IsGiftCertificate reports whether the sku sells a gift certificate
func (s *ProductSku) IsGiftCertificate() bool {
	return s.Product != nil && s.Product.TypeName == ProductTypeGiftCertificate
}
