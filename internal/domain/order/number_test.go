package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

func TestNumberFormat_Format(t *testing.T) {
	tests := []struct {
		name   string
		format NumberFormat
		n      int64
		want   string
	}{
		{"pads to width", NumberFormat{Width: 5}, 42, "00042"},
		{"keeps prefix", NumberFormat{Prefix: "EU-", Width: 5}, 7, "EU-00007"},
		{"wider than width", NumberFormat{Width: 2}, 12345, "12345"},
		{"zero width", NumberFormat{Prefix: "N"}, 9, "N9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.format.Format(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects non-positive counter", func(t *testing.T) {
		_, err := NumberFormat{Width: 5}.Format(0)
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_ORDER_NUMBER", de.Code)
	})
}
