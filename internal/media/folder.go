// Package media finds, validates and decodes the images the scene draws:
// background pictures from a folder and a single logo file.
package media

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrInvalidDir      = errors.New("invalid image folder")
	ErrNoImages        = errors.New("no images found")
	ErrInvalidLogo     = errors.New("invalid logo file")
	ErrUnsupportedLogo = errors.New("unsupported logo format")
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var logoExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// IsImageExt reports whether a folder scan picks up files with this extension.
func IsImageExt(ext string) bool {
	return imageExts[strings.ToLower(ext)]
}

// ImagePatterns and LogoPatterns are file dialog filters.
var (
	ImagePatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}
	LogoPatterns  = []string{"*.png", "*.jpg", "*.jpeg", "*.svg"}
)

// Scan walks dir recursively and returns every image file in it, sorted.
func Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDir, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subfolders are skipped
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() && IsImageExt(filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(files)
	return files, nil
}

// Folder is the current background image folder. It is shared between the
// HTTP handlers and the scene.
type Folder struct {
	mu    sync.RWMutex
	dir   string
	files []string
	rng   *rand.Rand
}

func NewFolder(rng *rand.Rand) *Folder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Folder{rng: rng}
}

// Set rescans dir and makes it current. On error the previous folder stays.
func (f *Folder) Set(dir string) (int, error) {
	dir = strings.TrimSpace(dir)
	files, err := Scan(dir)
	if err != nil {
		return 0, err
	}
	return f.Use(dir, files), nil
}

// Use makes an already scanned file list current.
func (f *Folder) Use(dir string, files []string) int {
	f.mu.Lock()
	f.dir, f.files = dir, files
	f.mu.Unlock()
	return len(files)
}

func (f *Folder) Dir() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dir
}

func (f *Folder) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.files)
}

// Random picks one image from the current folder.
func (f *Folder) Random() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.files) == 0 {
		return "", fmt.Errorf("%w: no folder set", ErrNoImages)
	}
	return f.files[f.rng.IntN(len(f.files))], nil
}

// ValidateLogo checks that path is a regular file in a logo format.
func ValidateLogo(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrInvalidLogo, path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); !logoExts[ext] {
		return fmt.Errorf("%w: %q (use .png, .jpg or .svg)", ErrUnsupportedLogo, ext)
	}
	return nil
}

// LogoFile remembers the validated logo path.
type LogoFile struct {
	mu   sync.RWMutex
	path string
}

func (l *LogoFile) Set(path string) error {
	path = strings.TrimSpace(path)
	if err := ValidateLogo(path); err != nil {
		return err
	}
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
	return nil
}

func (l *LogoFile) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}
