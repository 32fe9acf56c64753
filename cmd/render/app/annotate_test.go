package app

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeTestFont(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewAnnotatorErrors(t *testing.T) {
	t.Run("missing font", func(t *testing.T) {
		if _, err := NewAnnotator(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid font", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.ttf")
		if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewAnnotator(path); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestAnnotate(t *testing.T) {
	result := testResult(512)
	bounds := ComputePowerBounds(result.PowerSpectrumDB, nil, nil)

	img, err := NewRenderer(ClassicTheme, bounds).Render(result)
	if err != nil {
		t.Fatal(err)
	}

	a, err := NewAnnotator(writeTestFont(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Annotate(img, result, bounds); err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}

	// The info bar below the plot starts out as plain background; annotation
	// must have drawn text into it.
	var textPixels int
	for y := plotHeight; y < plotHeight+infoBarHeight; y++ {
		for x := 0; x < plotWidth; x++ {
			if img.RGBAAt(x, y) != backgroundColor {
				textPixels++
			}
		}
	}
	if textPixels == 0 {
		t.Error("info bar holds no rendered text")
	}
}
