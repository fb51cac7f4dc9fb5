package media

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"

	"gallery-streamer/internal/logging"
)

// Scanner lists the images under a media directory.
type Scanner struct {
	mediaDir string
}

// NewScanner creates a new Scanner instance.
func NewScanner(mediaDir string) *Scanner {
	return &Scanner{mediaDir: mediaDir}
}

// Dir returns the media directory.
func (s *Scanner) Dir() string {
	return s.mediaDir
}

// Scan walks the media directory and returns every supported image in
// natural path order ("img2" before "img10"). Hidden files and directories
// are skipped. Native dimensions are read from each file header; a file
// whose header cannot be read is still returned with zero dimensions.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	start := time.Now()
	var files []File

	err := filepath.WalkDir(s.mediaDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("scan: skipping %s: %v", path, err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") && path != s.mediaDir {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !IsImage(name) {
			return nil
		}

		f, ok := s.fileFor(path, entry)
		if ok {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return natural.Less(files[i].Path, files[j].Path)
	})

	logging.Info("Scanned %d images in %s (%v)", len(files), s.mediaDir, time.Since(start).Round(time.Millisecond))
	return files, nil
}

func (s *Scanner) fileFor(path string, entry fs.DirEntry) (File, bool) {
	info, err := entry.Info()
	if err != nil {
		return File{}, false
	}
	rel, err := filepath.Rel(s.mediaDir, path)
	if err != nil {
		return File{}, false
	}

	f := File{
		Path:     filepath.ToSlash(rel),
		Name:     entry.Name(),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		MimeType: MimeType(entry.Name()),
	}

	dims, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("Could not get image dimensions for %s: %v", path, err)
	} else {
		f.Width, f.Height = dims.Width, dims.Height
	}
	return f, true
}

// GetImageDimensions returns image dimensions without fully decoding the image.
func GetImageDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	head := make([]byte, 64*1024)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return Dimensions{}, err
	}
	dims, err := DecodeConfig(head[:n])
	if err == nil {
		return dims, nil
	}

	// Some formats keep their header further in; fall back to the full file.
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return Dimensions{}, readErr
	}
	return DecodeConfig(data)
}

// ErrOutsideMediaDir is returned by Resolve for paths escaping the media
// directory.
var ErrOutsideMediaDir = errors.New("path outside media directory")

// Resolve maps a relative item path to a file inside the media directory.
func (s *Scanner) Resolve(relativePath string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(relativePath))
	fullPath := filepath.Join(s.mediaDir, clean)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	absMediaDir, err := filepath.Abs(s.mediaDir)
	if err != nil {
		return "", err
	}
	if absPath != absMediaDir && !strings.HasPrefix(absPath, absMediaDir+string(filepath.Separator)) {
		return "", ErrOutsideMediaDir
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrInvalid
	}
	return absPath, nil
}
