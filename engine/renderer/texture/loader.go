package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-sandbox/common"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for files no registered image decoder recognizes.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// LoadImage decodes an image file. The format is detected from the file contents; PPM, BMP, PNG
// and JPEG are recognized.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - image.Image: the decoded image
//   - string: the detected format name
//   - error: an error wrapping ErrUnsupportedFormat, ErrInvalidPPM or the underlying I/O error
func LoadImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("texture: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", fmt.Errorf("texture %s: %w (extension %q)", path, ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, "", fmt.Errorf("texture %s: decode %s: %w", path, format, err)
	}
	return img, format, nil
}

// StagingData converts an image into tightly packed, non-premultiplied RGBA8 pixels with the
// first row at the top.
//
// Parameters:
//   - img: any image
//
// Returns:
//   - common.TextureStagingData: the pixels and dimensions
func StagingData(img image.Image) common.TextureStagingData {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) || nrgba.Stride != 4*b.Dx() {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return common.TextureStagingData{
		Pixels: nrgba.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}

// LoadStagingData decodes an image file straight into staging data.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - common.TextureStagingData: the RGBA8 pixels
//   - error: an error if the file cannot be decoded
func LoadStagingData(path string) (common.TextureStagingData, error) {
	img, _, err := LoadImage(path)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return StagingData(img), nil
}

// decodeQueueSize bounds the tasks waiting on the shared decode pool.
const decodeQueueSize = 64

// decodePool is shared by every LoadAll call for the life of the process, so its workers are
// started once instead of per batch.
var decodePool = sync.OnceValue(func() worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(runtime.NumCPU(), decodeQueueSize, 1*time.Second)
})

// LoadAll decodes several image files concurrently on the shared decode pool. Results are
// returned in the order of paths; entries whose file failed to decode are left zero. When any
// file fails, the first failure in path order is returned and the remaining failures are logged.
//
// Parameters:
//   - paths: the image files
//   - workers: the maximum number of files of this call decoded at once, values below 1 mean one
//
// Returns:
//   - []common.TextureStagingData: one entry per path
//   - error: the first decoding error
func LoadAll(paths []string, workers int) ([]common.TextureStagingData, error) {
	results := make([]common.TextureStagingData, len(paths))
	errs := make([]error, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	pool := decodePool()
	slots := make(chan struct{}, max(workers, 1))
	var wg sync.WaitGroup
	for i, path := range paths {
		slots <- struct{}{}
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer func() {
					<-slots
					wg.Done()
				}()
				results[i], errs[i] = LoadStagingData(path)
				return nil, errs[i]
			},
		})
	}
	wg.Wait()

	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
			continue
		}
		log.Printf("[Texture] %v", err)
	}
	return results, first
}
