package containers

import (
	"bytes"

	"github.com/seventv/FrameProcessor/src/image"
)

// signature tests data for one container format.
// https://www.garykessler.net/library/file_sigs.html
type signature struct {
	typ  image.ImageType
	test func(data []byte) bool
}

// checked in order, avif last because its test is the loosest.
var signatures = []signature{
	{image.AVI, isAVI},
	{image.FLV, isFLV},
	{image.GIF, isGIF},
	{image.JPEG, isJPEG},
	{image.MP4, isMP4},
	{image.PNG, isPNG},
	{image.TIFF, isTIFF},
	{image.WEBM, isWEBM},
	{image.WEBP, isWEBP},
	{image.MOV, isMOV},
	{image.AVIF, isAVIF},
}

func ToType(data []byte) (image.ImageType, error) {
	for _, s := range signatures {
		if s.test(data) {
			return s.typ, nil
		}
	}

	return "", ErrUnknownFormat
}

func hasAt(data []byte, offset int, magic string) bool {
	return len(data) >= offset+len(magic) && string(data[offset:offset+len(magic)]) == magic
}

func isAVI(data []byte) bool {
	return hasAt(data, 0, "RIFF") && hasAt(data, 8, "AVI LIST")
}

func isFLV(data []byte) bool {
	return hasAt(data, 0, "FLV\x01")
}

func isGIF(data []byte) bool {
	return len(data) >= 8 &&
		(hasAt(data, 0, "GIF87a") || hasAt(data, 0, "GIF89a")) &&
		data[len(data)-2] == 0x00 &&
		data[len(data)-1] == ';'
}

func isJPEG(data []byte) bool {
	return len(data) >= 4 &&
		hasAt(data, 0, "\xFF\xD8") &&
		bytes.HasSuffix(data, []byte{0xFF, 0xD9})
}

func isMP4(data []byte) bool {
	return hasAt(data, 4, "ftyp") &&
		(hasAt(data, 8, "MSNV") || hasAt(data, 8, "isom") || hasAt(data, 8, "mp42"))
}

func isPNG(data []byte) bool {
	return len(data) >= 16 &&
		hasAt(data, 0, "\x89PNG\r\n\x1A\n") &&
		bytes.HasSuffix(data, []byte("IEND\xAEB`\x82"))
}

func isTIFF(data []byte) bool {
	return hasAt(data, 0, "II*\x00") || hasAt(data, 0, "MM\x00*")
}

func isWEBM(data []byte) bool {
	return hasAt(data, 0, "\x1A\x45\xDF\xA3")
}

func isWEBP(data []byte) bool {
	return hasAt(data, 0, "RIFF") && hasAt(data, 8, "WEBP")
}

func isMOV(data []byte) bool {
	return hasAt(data, 4, "ftypqt") || hasAt(data, 4, "moov")
}

func isAVIF(data []byte) bool {
	return hasAt(data, 4, "ftypavif") || hasAt(data, 4, "ftypavis")
}
