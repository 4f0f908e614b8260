package pricing

import (
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is a string keyed map that remembers insertion order.
// Setting an existing key replaces the value and keeps its position.
type OrderedMap[V any] struct {
	entries *orderedmap.OrderedMap[string, V]
}

// NewOrderedMap creates an empty OrderedMap
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{entries: orderedmap.New[string, V]()}
}

// Set stores value under key
func (m *OrderedMap[V]) Set(key string, value V) {
	m.entries.Set(key, value)
}

// Get returns the value stored under key
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	return m.entries.Get(key)
}

// Has reports whether key is present
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.entries.Get(key)
	return ok
}

// Keys returns a copy of the keys in insertion order
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, 0, m.Len())
	m.Each(func(key string, _ V) {
		out = append(out, key)
	})
	return out
}

// Len returns the number of entries
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.entries.Len()
}

// Each calls fn for every entry in insertion order
func (m *OrderedMap[V]) Each(fn func(key string, value V)) {
	if m == nil {
		return
	}
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Sum adds up all amounts of a decimal map
func Sum(m *OrderedMap[decimal.Decimal]) decimal.Decimal {
	total := decimal.Zero
	m.Each(func(_ string, v decimal.Decimal) {
		total = total.Add(v)
	})
	return total
}
