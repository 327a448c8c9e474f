package helpers

import (
	"github.com/yigit/acadtrack/internal/app/models/dto"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NormalizeLimitOffset clamps limit into (0, MaxLimit] and offset to >= 0
func NormalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NewPaginationInfo builds the pagination block for a limit/offset window
func NewPaginationInfo(totalItems int64, limit, offset int) dto.PaginationInfo {
	limit, offset = NormalizeLimitOffset(limit, offset)
	return dto.PaginationInfo{
		Limit:      limit,
		Offset:     offset,
		TotalItems: totalItems,
		HasMore:    int64(offset+limit) < totalItems,
	}
}
