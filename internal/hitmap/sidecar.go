package hitmap

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes b in msgpack form.
func Encode(w io.Writer, b *Bitmap) error {
	if err := msgpack.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("failed to encode hit map: %w", err)
	}
	return nil
}

// Decode reads a bitmap written by Encode and checks its dimensions.
func Decode(r io.Reader) (*Bitmap, error) {
	var b Bitmap
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode hit map: %w", err)
	}
	if b.Width < 0 || b.Height < 0 || len(b.Words) != wordCount(b.Width, b.Height) {
		return nil, fmt.Errorf("corrupt hit map: %dx%d with %d words", b.Width, b.Height, len(b.Words))
	}
	return &b, nil
}

// Save writes b to path.
func Save(path string, b *Bitmap) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(file, b); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load reads a bitmap from path.
func Load(path string) (*Bitmap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return Decode(file)
}
