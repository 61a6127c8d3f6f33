package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewPageInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		total       int64
		page        int
		limit       int
		wantPages   int
		wantCurrent int
		wantOffset  int
		wantNext    *int
	}{
		{"first of three", 13, 1, 6, 3, 1, 0, intPtr(2)},
		{"last page", 13, 3, 6, 3, 3, 12, nil},
		{"page past end clamps", 13, 99, 6, 3, 3, 12, nil},
		{"zero rows still one page", 0, 1, 6, 1, 1, 0, nil},
		{"zero rows high page", 0, 5, 6, 1, 1, 0, nil},
		{"page below one", 10, -4, 5, 2, 1, 0, intPtr(2)},
		{"exact multiple", 12, 2, 6, 2, 2, 6, nil},
		{"limit below one", 3, 2, 0, 3, 2, 1, intPtr(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := NewPageInfo(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.wantPages, info.TotalPages)
			assert.Equal(t, tt.wantCurrent, info.CurrentPage)
			assert.Equal(t, tt.wantOffset, info.Offset)
			assert.Equal(t, tt.wantNext, info.NextPage)
		})
	}
}

func TestNewPageInfo_Properties(t *testing.T) {
	t.Parallel()

	for total := int64(0); total <= 40; total++ {
		for limit := 1; limit <= 9; limit++ {
			wantPages := int((total + int64(limit) - 1) / int64(limit))
			if wantPages < 1 {
				wantPages = 1
			}
			for page := -1; page <= wantPages+2; page++ {
				info := NewPageInfo(total, page, limit)
				assert.Equal(t, wantPages, info.TotalPages)

				wantCurrent := min(max(page, 1), wantPages)
				assert.Equal(t, wantCurrent, info.CurrentPage)

				if info.CurrentPage == info.TotalPages {
					assert.Nil(t, info.NextPage)
				} else if assert.NotNil(t, info.NextPage) {
					assert.Equal(t, info.CurrentPage+1, *info.NextPage)
				}
			}
		}
	}
}

func TestAsAppError(t *testing.T) {
	t.Parallel()

	notFound := AsAppError(gorm.ErrRecordNotFound)
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, 404, notFound.Status())

	internal := AsAppError(errors.New("connection refused"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, 500, internal.Status())

	fields := NewFieldValidationError([]string{"Title is required"})
	assert.Same(t, fields, AsAppError(fields))
	assert.Equal(t, 400, fields.Status())

	assert.Equal(t, 403, NewForbiddenError("no").Status())
	assert.Equal(t, 409, NewConflictError("dup").Status())
	assert.Equal(t, 401, NewUnauthorizedError("who").Status())
	assert.Equal(t, 429, (&AppError{Code: CodeRateLimited}).Status())
	assert.Equal(t, 503, (&AppError{Code: CodeUnavailable}).Status())
}

func intPtr(v int) *int { return &v }
