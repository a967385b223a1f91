package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditLogFilter_Page(t *testing.T) {
	tests := []struct {
		name          string
		filter        AuditLogFilter
		limit, offset int
	}{
		{"zero", AuditLogFilter{}, DefaultAuditLogLimit, 0},
		{"in range", AuditLogFilter{Limit: 10, Offset: 20}, 10, 20},
		{"too large", AuditLogFilter{Limit: MaxAuditLogLimit + 1}, DefaultAuditLogLimit, 0},
		{"negative offset", AuditLogFilter{Limit: 5, Offset: -3}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := tt.filter.Page()
			assert.Equal(t, tt.limit, limit)
			assert.Equal(t, tt.offset, offset)
		})
	}
}
