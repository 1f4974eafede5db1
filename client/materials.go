package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
)

// maxMaterialBytes caps inline material downloads. Slides decks run a few
// megabytes; anything bigger stays a URL reference.
const maxMaterialBytes = 32 << 20

// Materials downloads meeting materials over plain HTTP.
type Materials struct {
	http   *http.Client
	logger logging.Logger
}

// NewMaterials returns a materials downloader.
func NewMaterials(logger logging.Logger) *Materials {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Materials{
		http:   &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
	}
}

func (m *Materials) fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// MaterialContent downloads a material and returns its raw bytes. It
// satisfies the builder's fetcher interface for inline attachment mode.
func (m *Materials) MaterialContent(material ietf.Material) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := m.fetch(ctx, material.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch material %q: %w", material.Title, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMaterialBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch material %q: %w", material.Title, err)
	}
	if len(data) > maxMaterialBytes {
		return nil, fmt.Errorf("fetch material %q: larger than %d bytes", material.Title, maxMaterialBytes)
	}
	return data, nil
}

// DownloadMaterial saves a material into outputDir and returns the path of
// the written file. The filename comes from the material itself, the
// Content-Disposition header, the URL path, or the content type, in that
// order of preference.
func (m *Materials) DownloadMaterial(ctx context.Context, material ietf.Material, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download material: %w", err)
	}

	resp, err := m.fetch(ctx, material.URL)
	if err != nil {
		return "", fmt.Errorf("download material %q: %w", material.Title, err)
	}
	defer resp.Body.Close()

	name := materialFilename(material, resp)
	dest := filepath.Join(outputDir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("download material %q: %w", material.Title, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download material %q: %w", material.Title, err)
	}
	m.logger.Debug("material saved",
		logging.F("title", material.Title), logging.F("path", dest))
	return dest, nil
}

// materialFilename picks a filename for a downloaded material.
func materialFilename(material ietf.Material, resp *http.Response) string {
	if material.Filename != "" {
		return material.Filename
	}

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return filepath.Base(name)
			}
		}
	}

	if u, err := url.Parse(material.URL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}

	ext := ".bin"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			switch {
			case mediaType == "application/pdf":
				ext = ".pdf"
			case mediaType == "text/html":
				ext = ".html"
			case strings.HasPrefix(mediaType, "text/"):
				ext = ".txt"
			}
		}
	}
	return material.Type + ext
}
