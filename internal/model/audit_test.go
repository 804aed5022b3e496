package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Page{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Page{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, 0, Page{Page: 5, Limit: 0}.Offset())
}

func TestPageOffset_Saturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, Page{Page: math.MaxInt, Limit: 100}.Offset())
	assert.Equal(t, math.MaxInt, Page{Page: math.MaxInt/2 + 2, Limit: 2}.Offset())
	assert.Positive(t, Page{Page: math.MaxInt/100 + 1, Limit: 100}.Offset())
}
