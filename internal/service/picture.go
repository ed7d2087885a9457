package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrImageTooLarge        = errors.New("image too large")
	ErrInvalidImage         = errors.New("invalid image")
)

const (
	pictureMaxSide     = 400
	pictureJPEGQuality = 85
	pictureMaxPixels   = 40_000_000
)

var allowedPictureExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

func allowedPictureExt(filename string) bool {
	return allowedPictureExts[strings.ToLower(filepath.Ext(filename))]
}

// readLimited lee como maximo limit bytes; si hay mas devuelve ErrImageTooLarge.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// processPicture decodifica la imagen, la ajusta a 400x400 manteniendo la proporcion
// y la re-codifica como JPEG sobre fondo blanco.
func processPicture(data []byte) ([]byte, error) {
	// Las dimensiones declaradas se validan antes de reservar pixeles.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > pictureMaxPixels {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), pictureMaxSide)
	if w == 0 || h == 0 {
		return nil, ErrInvalidImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: pictureJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitWithin nunca agranda la imagen.
func fitWithin(w, h, max int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
