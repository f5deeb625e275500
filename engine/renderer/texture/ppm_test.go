package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"runtime"
	"strings"
	"testing"
)

func pixel(t *testing.T, img image.Image, x, y int) color.NRGBA {
	t.Helper()
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestDecodePlain(t *testing.T) {
	src := `P3
# a 2x2 test image
2 2
255
255 0 0   0 255 0
0 0 255   # trailing comment
10 20 30`
	img, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	want := []color.NRGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255},
		{0, 0, 255, 255}, {10, 20, 30, 255},
	}
	for i, w := range want {
		if got := pixel(t, img, i%2, i/2); got != w {
			t.Errorf("pixel %d = %v, want %v", i, got, w)
		}
	}
}

func TestDecodeRaw(t *testing.T) {
	src := append([]byte("P6\n#c\n2 1\n255\n"), 1, 2, 3, 250, 251, 252)
	img, err := Decode(bytes.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("bounds = %v", b)
	}
	if got := pixel(t, img, 0, 0); got != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := pixel(t, img, 1, 0); got != (color.NRGBA{250, 251, 252, 255}) {
		t.Errorf("pixel 1 = %v", got)
	}
}

func TestDecodeScalesSamples(t *testing.T) {
	// maxval 15: 15 -> 255, 0 -> 0, 7 -> 119
	plain, err := Decode(strings.NewReader("P3 1 1 15 15 0 7"))
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, plain, 0, 0); got != (color.NRGBA{255, 0, 119, 255}) {
		t.Errorf("plain scaled pixel = %v", got)
	}

	// 16-bit big-endian samples
	raw := append([]byte("P6 1 1 65535\n"), 0xff, 0xff, 0x00, 0x00, 0x80, 0x00)
	img, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, img, 0, 0); got != (color.NRGBA{255, 0, 128, 255}) {
		t.Errorf("16-bit pixel = %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad magic", "P5 1 1 255\n\x00"},
		{"empty", ""},
		{"zero width", "P3 0 1 255"},
		{"zero maxval", "P3 1 1 0 0 0 0"},
		{"maxval too big", "P3 1 1 65536 0 0 0"},
		{"huge dimension", "P6 99999999 1 255\n"},
		{"garbage in header", "P3 1 x 255"},
		{"sample above maxval", "P3 1 1 10 11 0 0"},
		{"truncated plain", "P3 2 1 255 1 2 3"},
		{"truncated raw", "P6 2 1 255\n\x01\x02\x03"},
		{"no separator after maxval", "P6 1 1 255x\x01\x02\x03"},
		{"unterminated comment after maxval", "P6 1 1 255#\x01\x02\x03"},
		{"no separator after magic", "P31 1 255 0 0 0"},
		{"too many pixels", "P6 32768 32768 255\n"},
		{"unterminated comment", "P3 1 1 # no newline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			if !errors.Is(err, ErrInvalidPPM) {
				t.Fatalf("err = %v, want ErrInvalidPPM", err)
			}
		})
	}

	_, err := Decode(strings.NewReader("P6 2 1 255\n\x01"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated raster err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeCommentAfterMaxval(t *testing.T) {
	img, err := Decode(strings.NewReader("P6 1 1 255# made by hand\n\x01\x02\x03"))
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, img, 0, 0); got != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestDecodeTruncatedLargeHeader(t *testing.T) {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := Decode(strings.NewReader("P6 8000 8000 255\n"))
	runtime.ReadMemStats(&after)
	if !errors.Is(err, ErrInvalidPPM) {
		t.Fatalf("err = %v, want ErrInvalidPPM", err)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 8<<20 {
		t.Errorf("allocated %d MiB for a header-only image", grown>>20)
	}
}

func TestDecodeConfigAndRegistration(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader("P6\n640 480\n255\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("config = %dx%d", cfg.Width, cfg.Height)
	}

	_, format, err := image.Decode(strings.NewReader("P3 1 1 255 1 2 3"))
	if err != nil || format != "ppm" {
		t.Errorf("image.Decode format = %q, err = %v", format, err)
	}
}

func TestEncodeDecode(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}

	var buf bytes.Buffer
	if err := Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("P6\n3 2\n255\n")) {
		t.Errorf("header = %q", buf.Bytes()[:12])
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.(*image.NRGBA).Pix, src.Pix) {
		t.Error("decoded pixels differ from encoded image")
	}
}
