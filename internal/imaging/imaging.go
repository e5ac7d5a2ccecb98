package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// MaxInputSize is the largest photo accepted for an item.
const MaxInputSize = 10 << 20

// JPEGQuality is the fixed compression quality for stored photos.
const JPEGQuality = 85

// MIME is the content type of every stored photo.
const MIME = "image/jpeg"

// AllowedMIME lists the accepted input MIME types, as sniffed from the bytes.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// Result contains the encoded photo.
type Result struct {
	Data []byte
	MIME string
}

// Encode reads a captured photo and re-encodes it as JPEG. Dimensions are
// kept as they are.
//
// An empty reader means the capture was cancelled: Encode returns nil and no
// error, and the item is stored without a photo.
func Encode(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxInputSize)
	}

	detected := sniff(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Result{
		Data: buf.Bytes(),
		MIME: MIME,
	}, nil
}

// sniff detects the content type from the leading bytes. TIFF is not known
// to http.DetectContentType, so its byte-order marks are checked here.
func sniff(data []byte) string {
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return "image/tiff"
	}
	return http.DetectContentType(data)
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("gif", "GIF8?a", gif.Decode, gif.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig)
}

// FormImage encodes the photo uploaded in the multipart field. It returns nil
// when the field is missing or empty, or when the form is not multipart. The
// request body must already be limited by the caller.
func FormImage(r *http.Request, field string) (*Result, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading uploaded image: %w", err)
	}
	defer file.Close()

	return Encode(file)
}
