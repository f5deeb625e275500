package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
)

// objLoaderBackend decodes Wavefront OBJ files and their MTL material libraries.
type objLoaderBackend struct{}

var _ loaderBackend = &objLoaderBackend{}

func newOBJLoaderBackend() *objLoaderBackend {
	return &objLoaderBackend{}
}

func (b *objLoaderBackend) Load(path string) (*ImportedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	var materials io.Reader
	if lib := materialLibrary(data); lib != "" {
		mtlPath := lib
		if !filepath.IsAbs(mtlPath) {
			mtlPath = filepath.Join(dir, lib)
		}
		mtl, err := os.ReadFile(mtlPath)
		switch {
		case err == nil:
			materials = bytes.NewReader(mtl)
			dir = filepath.Dir(mtlPath)
		case errors.Is(err, os.ErrNotExist):
			log.Printf("[Loader] %s: material library %s not found, using default materials", path, mtlPath)
		default:
			return nil, fmt.Errorf("material library %s: %w", mtlPath, err)
		}
	}
	return b.LoadReader(path, bytes.NewReader(data), materials, dir)
}

func (b *objLoaderBackend) LoadReader(name string, model, materials io.Reader, dir string) (*ImportedModel, error) {
	if materials == nil {
		materials = strings.NewReader("")
	}
	dec, err := obj.DecodeReader(model, materials)
	if err != nil {
		return nil, err
	}
	if len(dec.Warnings) > 0 {
		log.Printf("[Loader] %s: %d warnings, first: %s", name, len(dec.Warnings), dec.Warnings[0])
	}
	return extractOBJModel(name, dec, dir)
}

// materialLibrary returns the first mtllib file named in an OBJ source, or "".
func materialLibrary(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "mtllib"); ok && rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
