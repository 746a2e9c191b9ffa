package main

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrder(t *testing.T) {
	f := gofakeit.New(42)

	for range 50 {
		order := generateOrder(f, 0)

		assert.Contains(t, orderTypes, order.Type)
		assert.NotNil(t, order.Products)
		assert.LessOrEqual(t, len(order.Products), 4)
		_, err := time.Parse(time.DateOnly, order.Date)
		require.NoError(t, err)
	}

	invalid := generateOrder(f, 1)
	assert.Equal(t, " ", invalid.Type)
}
