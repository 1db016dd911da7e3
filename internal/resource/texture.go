package resource

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Texture is a decoded image in tightly packed RGBA8, top row first unless
// its TextureSpec set FlipY.
type Texture struct {
	Path   string
	Format string
	Width  int
	Height int
	Pix    []byte
}

// Clone deep copies the pixel buffer.
func (t Texture) Clone() Texture {
	t.Pix = append([]byte(nil), t.Pix...)
	return t
}

// TextureSpec requests the image at Path. MaxSize > 0 downsamples larger
// images so that neither side exceeds it.
type TextureSpec struct {
	Root    string
	Path    string
	FlipY   bool
	MaxSize int
}

func (s TextureSpec) Hash() uint64 {
	return contentHash("texture", NormalizePath(s.Path),
		strconv.FormatBool(s.FlipY), strconv.Itoa(s.MaxSize))
}

func (s TextureSpec) Generate() (Texture, error) {
	path := NormalizePath(s.Path)
	f, err := os.Open(filepath.Join(s.Root, filepath.FromSlash(path)))
	if err != nil {
		return Texture{}, fmt.Errorf("open texture %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return Texture{}, fmt.Errorf("decode texture %s: %w", path, err)
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), s.MaxSize)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	}
	if s.FlipY {
		flipRows(rgba.Pix, rgba.Stride, h)
	}
	return Texture{Path: path, Format: format, Width: w, Height: h, Pix: rgba.Pix}, nil
}

func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bot := 0, rows-1; top < bot; top, bot = top+1, bot-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bot*stride : (bot+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
