package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCPUNum(t *testing.T) {
	n := GetCPUNum()
	assert.Greater(t, n, 0)
	assert.Equal(t, n, GetCPUNum())
	assert.Greater(t, GetMaxProcs(), 0)
}
