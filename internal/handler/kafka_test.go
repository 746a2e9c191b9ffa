package handler

import (
	"testing"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrder(t *testing.T) {
	validate := newValidator()

	testCases := []struct {
		name        string
		data        string
		want        entities.Order
		wantInvalid bool
		wantErr     bool
	}{
		{
			name: "valid message",
			data: `{"type":"standard","products":["pen"],"date":"2024-01-10"}`,
			want: entities.Order{
				Type:     "standard",
				Products: []string{"pen"},
				Date:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:        "blank type",
			data:        `{"type":" ","products":["pen"],"date":"2024-01-10"}`,
			wantInvalid: true,
		},
		{
			name:    "not json",
			data:    `order`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeOrder(validate, []byte(tc.data))

			if tc.wantInvalid {
				assert.ErrorIs(t, err, entities.ErrInvalidOrder)
				var ve validator.ValidationErrors
				assert.ErrorAs(t, err, &ve)
				return
			}
			if tc.wantErr {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, entities.ErrInvalidOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
