// internal/ocrengine/engine.go
package ocrengine

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine extracts text from an image file.
type Engine interface {
	Recognize(imagePath string) (string, error)
}

// Tesseract runs optical text recognition through the local tesseract
// installation. A fresh client per image keeps failed recognitions from
// poisoning later ones.
type Tesseract struct {
	lang string
}

var _ Engine = (*Tesseract)(nil)

// NewTesseract creates an engine for the given language (e.g. "nor").
func NewTesseract(lang string) *Tesseract {
	return &Tesseract{lang: lang}
}

func (t *Tesseract) Recognize(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.lang); err != nil {
		return "", fmt.Errorf("ocr: set language %s: %w", t.lang, err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("ocr: load image %s: %w", imagePath, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize %s: %w", imagePath, err)
	}
	return text, nil
}
