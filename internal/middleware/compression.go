package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, that is compressed
	MinSize int
	// CompressibleTypes lists media types worth compressing. Image payloads
	// are already compressed and are not listed.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns the defaults for the control API
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:           1024,
		CompressibleTypes: []string{"application/json", "text/plain"},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

// gzipResponseWriter buffers up to MinSize bytes, then commits to either a
// gzip or a plain body.
type gzipResponseWriter struct {
	http.ResponseWriter
	config     CompressionConfig
	gz         *gzip.Writer
	buffer     []byte
	statusCode int
	committed  bool
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if !g.committed {
		g.statusCode = statusCode
	}
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.committed {
		if g.gz != nil {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) >= g.config.MinSize {
		if err := g.commit(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (g *gzipResponseWriter) compressible() bool {
	if g.statusCode == http.StatusNoContent || g.statusCode == http.StatusNotModified {
		return false
	}
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(g.Header().Get("Content-Type"), ";")[0]))
	for _, t := range g.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

func (g *gzipResponseWriter) commit() error {
	g.committed = true
	buf := g.buffer
	g.buffer = nil

	if len(buf) >= g.config.MinSize && g.compressible() {
		h := g.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, err := g.gz.Write(buf)
		return err
	}

	g.ResponseWriter.WriteHeader(g.statusCode)
	_, err := g.ResponseWriter.Write(buf)
	return err
}

// Close flushes any buffered body and returns the gzip writer to the pool.
func (g *gzipResponseWriter) Close() error {
	if !g.committed {
		if err := g.commit(); err != nil {
			return err
		}
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipWriterPool.Put(g.gz)
	g.gz = nil
	return err
}

// Compression returns a middleware that gzips compressible responses for
// clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{
				ResponseWriter: w,
				config:         config,
				statusCode:     http.StatusOK,
				buffer:         make([]byte, 0, config.MinSize),
			}
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}
