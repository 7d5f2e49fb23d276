package images

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// ErrDecode is returned when an image file can't be read or decoded.
type ErrDecode struct {
	Path string
	error
}

func (err ErrDecode) Error() string {
	if err.error == nil {
		return fmt.Sprintf("unable to decode image %q", err.Path)
	}

	return fmt.Sprintf("unable to decode image %q: %s", err.Path, err.error)
}

func (err ErrDecode) Unwrap() error {
	return err.error
}

func (err ErrDecode) Is(target error) bool {
	_, ok := target.(ErrDecode)
	return ok
}

// Decode decodes an encoded image into an 8-bit BGR Mat.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), ErrDecode{}
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		mat.Close()
		return gocv.NewMat(), ErrDecode{error: err}
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), ErrDecode{}
	}

	return mat, nil
}

// Read loads and decodes the image at path. The raw file bytes are returned
// alongside so callers can fingerprint the content.
func Read(path string) (gocv.Mat, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), nil, ErrDecode{Path: path, error: err}
	}

	mat, err := Decode(data)
	if err != nil {
		decodeErr := err.(ErrDecode)
		decodeErr.Path = path
		return mat, nil, decodeErr
	}

	return mat, data, nil
}

// Write encodes mat to path, picking the format from the extension, creating
// parent directories as needed.
func Write(path string, mat gocv.Mat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create directory for %q: %w", path, err)
	}

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("unable to write image %q", path)
	}

	return nil
}

// EncodeJPEG encodes mat as JPEG bytes.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("unable to encode jpeg: %w", err)
	}
	defer buf.Close()

	// the native buffer is freed on Close
	return append([]byte(nil), buf.GetBytes()...), nil
}
