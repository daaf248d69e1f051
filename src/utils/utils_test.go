package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestB2S(t *testing.T) {
	assert.Equal(t, "dump_0000.png", B2S([]byte("dump_0000.png")))
	assert.Equal(t, "", B2S(nil))
}

func TestStringPointer(t *testing.T) {
	p := StringPointer("image/gif")
	assert.Equal(t, "image/gif", *p)
}
