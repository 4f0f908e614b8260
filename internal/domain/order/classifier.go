package order

// ShipmentClassifier decides how a root order sku is fulfilled
type ShipmentClassifier interface {
	Classify(sku *OrderSku) ShipmentType
}

// DefaultShipmentClassifier ships a root physically when any of its leaves is
// shippable, electronically when a leaf is a digital asset or a gift
// certificate, and treats everything else as a service.
type DefaultShipmentClassifier struct{}

// Classify implements ShipmentClassifier
func (DefaultShipmentClassifier) Classify(sku *OrderSku) ShipmentType {
	electronic := false
	for _, leaf := range sku.Leaves() {
		if leaf.Shippable {
			return ShipmentTypePhysical
		}
		if leaf.DigitalAsset || leaf.IsGiftCertificate() {
			electronic = true
		}
	}
	if electronic {
		return ShipmentTypeElectronic
	}
	return ShipmentTypeService
}
