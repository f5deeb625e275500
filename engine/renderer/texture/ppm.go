package texture

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// ErrInvalidPPM is wrapped by every PPM decoding error.
var ErrInvalidPPM = errors.New("invalid PPM")

const (
	// ppmMaxDimension bounds width and height.
	ppmMaxDimension = 1 << 15

	// ppmMaxPixels bounds width*height, 256 MiB of RGBA8.
	ppmMaxPixels = 1 << 26

	// ppmInitialPix caps the first raster allocation; the raster grows only as data arrives.
	ppmInitialPix = 1 << 20

	// ppmMaxValue is the largest maxval the format allows.
	ppmMaxValue = 65535
)

func init() {
	image.RegisterFormat("ppm", "P3", Decode, DecodeConfig)
	image.RegisterFormat("ppm", "P6", Decode, DecodeConfig)
}

// ppmHeader is the parsed header of a PPM image.
type ppmHeader struct {
	plain         bool
	width, height int
	maxval        int
}

// ppmReader tokenizes the whitespace and comment separated fields of a PPM stream.
type ppmReader struct {
	r *bufio.Reader
}

// Decode reads a PPM image in the plain (P3) or raw (P6) variant. Samples are scaled from the
// header's maxval to 8 bits; raw images with a maxval above 255 carry big-endian 16-bit samples.
// Comments starting with '#' run to the end of the line and may appear between any header fields.
//
// Parameters:
//   - r: the PPM stream
//
// Returns:
//   - image.Image: an opaque *image.NRGBA
//   - error: an error wrapping ErrInvalidPPM for malformed data, or the underlying read error
func Decode(r io.Reader) (image.Image, error) {
	pr := &ppmReader{r: bufio.NewReader(r)}
	h, err := pr.header()
	if err != nil {
		return nil, err
	}

	pix := make([]byte, 0, min(h.width*h.height*4, ppmInitialPix))
	if h.plain {
		pix, err = pr.plainPixels(h, pix)
	} else {
		pix, err = pr.rawPixels(h, pix)
	}
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: pix, Stride: h.width * 4, Rect: image.Rect(0, 0, h.width, h.height)}, nil
}

// DecodeConfig reads only the PPM header.
//
// Parameters:
//   - r: the PPM stream
//
// Returns:
//   - image.Config: the dimensions and color model of the image
//   - error: an error wrapping ErrInvalidPPM for a malformed header
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := (&ppmReader{r: bufio.NewReader(r)}).header()
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

// Encode writes img as a raw (P6) PPM with a maxval of 255. Alpha is discarded.
//
// Parameters:
//   - w: the destination
//   - img: the image to encode
//
// Returns:
//   - error: the first write error
func Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	row := make([]byte, 0, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			row = append(row, c.R, c.G, c.B)
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (p *ppmReader) header() (ppmHeader, error) {
	var magic [2]byte
	if _, err := io.ReadFull(p.r, magic[:]); err != nil {
		return ppmHeader{}, fmt.Errorf("%w: reading magic number: %w", ErrInvalidPPM, eof(err))
	}

	var h ppmHeader
	switch string(magic[:]) {
	case "P3":
		h.plain = true
	case "P6":
	default:
		return ppmHeader{}, fmt.Errorf("%w: magic number %q, want P3 or P6", ErrInvalidPPM, magic[:])
	}
	next, err := p.r.Peek(1)
	if err != nil {
		return ppmHeader{}, fmt.Errorf("%w: after magic number: %w", ErrInvalidPPM, eof(err))
	}
	if !isSpace(next[0]) && next[0] != '#' {
		return ppmHeader{}, fmt.Errorf("%w: expected whitespace after magic number, found %q", ErrInvalidPPM, next[0])
	}

	w, err := p.uint("width", ppmMaxDimension)
	if err != nil {
		return ppmHeader{}, err
	}
	hgt, err := p.uint("height", ppmMaxDimension)
	if err != nil {
		return ppmHeader{}, err
	}
	maxval, err := p.uint("maxval", ppmMaxValue)
	if err != nil {
		return ppmHeader{}, err
	}
	if w == 0 || hgt == 0 {
		return ppmHeader{}, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidPPM, w, hgt)
	}
	if w*hgt > ppmMaxPixels {
		return ppmHeader{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidPPM, w, hgt, ppmMaxPixels)
	}
	if maxval == 0 {
		return ppmHeader{}, fmt.Errorf("%w: maxval must be at least 1", ErrInvalidPPM)
	}
	h.width, h.height, h.maxval = int(w), int(hgt), int(maxval)

	if !h.plain {
		// one whitespace byte, or a comment through its newline, separates the header from raster data
		c, err := p.r.ReadByte()
		if err != nil {
			return ppmHeader{}, fmt.Errorf("%w: %w", ErrInvalidPPM, eof(err))
		}
		switch {
		case c == '#':
			if _, err := p.r.ReadString('\n'); err != nil {
				return ppmHeader{}, fmt.Errorf("%w: comment after maxval: %w", ErrInvalidPPM, eof(err))
			}
		case !isSpace(c):
			return ppmHeader{}, fmt.Errorf("%w: expected whitespace after maxval, found %q", ErrInvalidPPM, c)
		}
	}
	return h, nil
}

func (p *ppmReader) plainPixels(h ppmHeader, pix []byte) ([]byte, error) {
	for i := 0; i < h.width*h.height; i++ {
		var rgb [3]uint8
		for c := range rgb {
			v, err := p.uint("sample", uint64(h.maxval))
			if err != nil {
				return nil, fmt.Errorf("pixel %d: %w", i, err)
			}
			rgb[c] = scale(int(v), h.maxval)
		}
		pix = append(pix, rgb[0], rgb[1], rgb[2], 0xff)
	}
	return pix, nil
}

func (p *ppmReader) rawPixels(h ppmHeader, pix []byte) ([]byte, error) {
	sampleSize := 1
	if h.maxval > 255 {
		sampleSize = 2
	}
	row := make([]byte, h.width*3*sampleSize)
	for y := 0; y < h.height; y++ {
		if _, err := io.ReadFull(p.r, row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidPPM, y, eof(err))
		}
		for x := 0; x < h.width*3; x++ {
			v := int(row[x])
			if sampleSize == 2 {
				v = int(row[2*x])<<8 | int(row[2*x+1])
			}
			if v > h.maxval {
				return nil, fmt.Errorf("%w: sample %d exceeds maxval %d", ErrInvalidPPM, v, h.maxval)
			}
			pix = append(pix, scale(v, h.maxval))
			if x%3 == 2 {
				pix = append(pix, 0xff)
			}
		}
	}
	return pix, nil
}

// uint reads the next decimal field, skipping whitespace and comments before it.
func (p *ppmReader) uint(field string, limit uint64) (uint64, error) {
	if err := p.skip(); err != nil {
		return 0, fmt.Errorf("%w: reading %s: %w", ErrInvalidPPM, field, eof(err))
	}

	var v uint64
	digits := 0
	for {
		c, err := p.r.ReadByte()
		if err == io.EOF && digits > 0 {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: reading %s: %w", ErrInvalidPPM, field, eof(err))
		}
		if c < '0' || c > '9' {
			if digits > 0 && (isSpace(c) || c == '#') {
				return v, p.r.UnreadByte()
			}
			return 0, fmt.Errorf("%w: unexpected %q in %s", ErrInvalidPPM, c, field)
		}
		v = v*10 + uint64(c-'0')
		digits++
		if v > limit {
			return 0, fmt.Errorf("%w: %s exceeds %d", ErrInvalidPPM, field, limit)
		}
	}
}

// skip consumes whitespace and '#' comments.
func (p *ppmReader) skip() error {
	for {
		c, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case c == '#':
			if _, err := p.r.ReadString('\n'); err != nil {
				return err
			}
		case isSpace(c):
		default:
			return p.r.UnreadByte()
		}
	}
}

// scale maps a sample in [0, maxval] onto [0, 255], rounding to nearest.
func scale(v, maxval int) uint8 {
	if maxval == 255 {
		return uint8(v)
	}
	return uint8((v*255 + maxval/2) / maxval)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func eof(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
