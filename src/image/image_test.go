package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		size    string
		want    Size
		wantErr bool
	}{
		{name: "valid", size: "384x128", want: Size{Width: 384, Height: 128}},
		{name: "upper case", size: " 96X32 ", want: Size{Width: 96, Height: 32}},
		{name: "missing height", size: "96", wantErr: true},
		{name: "bad width", size: "abcx32", wantErr: true},
		{name: "bad height", size: "96xabc", wantErr: true},
		{name: "zero", size: "0x32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestSizeFit(t *testing.T) {
	s := Size{Width: 384, Height: 128}

	assert.Equal(t, Size{Width: 128, Height: 128}, s.Fit(500, 500))
	assert.Equal(t, Size{Width: 256, Height: 128}, s.Fit(200, 100))
	assert.Equal(t, Size{Width: 384, Height: 38}, s.Fit(1000, 100))
	assert.Equal(t, s, s.Fit(0, 10))
}

func TestImageType(t *testing.T) {
	assert.Equal(t, "image/gif", GIF.ContentType())
	assert.Equal(t, "video/mp4", MP4.ContentType())
	assert.Equal(t, ".webp", WEBP.Extension())
	assert.True(t, WEBM.Video())
	assert.False(t, AVIF.Video())
}
