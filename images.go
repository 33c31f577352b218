package forumfront

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/forumfront/section"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, downscales it to maxImageWidth
// when wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string) (Upload, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Upload{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Upload{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := slugifyFilename(originalName)
	if base == "" {
		base = "image"
	}

	return Upload{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	return Slugify(strings.TrimSuffix(name, ext))
}

// ensureUniqueFilename appends a counter until the name is free on disk
// and in the store.
func (a *App) ensureUniqueFilename(u *Upload) error {
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	base := strings.TrimSuffix(u.Filename, ".jpg")
	candidate := u.Filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return statErr
		}
		exists, err := a.Store.UploadExists(candidate)
		if err != nil {
			return err
		}
		if errors.Is(statErr, os.ErrNotExist) && !exists {
			break
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	u.Filename = candidate
	return nil
}

// handleUpload stores an image and writes its URL into an image section,
// either as the main image (target=src) or as a new gallery entry
// (target=gallery).
func (a *App) handleUpload(c echo.Context) error {
	if !a.uploadLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many uploads. Try again later.")
	}
	idx, err := intParam(c, "idx")
	if err != nil {
		return err
	}
	target := c.FormValue("target")
	if target == "" {
		target = "src"
	}
	if target != "src" && target != "gallery" {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown upload target")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	upload, data, err := processImage(io.LimitReader(src, maxUploadSize), file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	upload.UserID = a.viewer(c).UserID

	return a.mutateDraft(c, func(d *Draft) error {
		if idx < 0 || idx >= len(d.Sections) || d.Sections[idx].Type != section.Image {
			return echo.NewHTTPError(http.StatusBadRequest, "uploads go into image sections")
		}
		if err := a.saveUpload(&upload, data); err != nil {
			return err
		}
		url := upload.URL()
		if target == "gallery" {
			d.Sections.AddImage(idx)
			d.Sections.UpdateImage(idx, len(d.Sections[idx].ImageDetail)-1, url)
			return nil
		}
		d.Sections.Update(idx, section.Patch{Src: &url})
		return nil
	})
}

func (a *App) saveUpload(u *Upload, data []byte) error {
	if err := a.ensureUniqueFilename(u); err != nil {
		return err
	}
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, u.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return a.Store.SaveUpload(*u)
}
