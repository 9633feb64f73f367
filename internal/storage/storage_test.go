package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatestKey(t *testing.T) {
	objects := []ObjectInfo{
		{Key: "order-sheets/2025-07-09.csv", Size: 120},
		{Key: "order-sheets/2025-07-11.csv", Size: 90},
		{Key: "order-sheets/2025-07-10.csv", Size: 150},
	}

	assert.Equal(t, "order-sheets/2025-07-11.csv", LatestKey(objects))
	assert.Equal(t, "", LatestKey(nil))
}
