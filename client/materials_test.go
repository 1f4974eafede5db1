package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
)

func TestMaterialContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.7 fake slides")
	}))
	defer srv.Close()

	m := NewMaterials(nil)
	data, err := m.MaterialContent(ietf.Material{Title: "Slides", URL: srv.URL + "/slides.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake slides", string(data))
}

func TestMaterialContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	m := NewMaterials(nil)
	_, err := m.MaterialContent(ietf.Material{Title: "Slides", URL: srv.URL + "/missing.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDownloadMaterial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "agenda body")
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := NewMaterials(nil)
	dest, err := m.DownloadMaterial(context.Background(), ietf.Material{
		Title:    "Agenda",
		URL:      srv.URL + "/agenda-123-vcon",
		Filename: "agenda-123-vcon.txt",
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "agenda-123-vcon.txt"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "agenda body", string(data))
}

func TestMaterialFilename(t *testing.T) {
	resp := func(headers map[string]string) *http.Response {
		h := http.Header{}
		for k, v := range headers {
			h.Set(k, v)
		}
		return &http.Response{Header: h}
	}

	tests := []struct {
		name     string
		material ietf.Material
		resp     *http.Response
		want     string
	}{
		{
			name:     "material filename wins",
			material: ietf.Material{Filename: "slides.pdf", URL: "https://example.org/other"},
			resp:     resp(map[string]string{"Content-Disposition": `attachment; filename="x.pdf"`}),
			want:     "slides.pdf",
		},
		{
			name:     "content disposition",
			material: ietf.Material{URL: "https://example.org/dl"},
			resp:     resp(map[string]string{"Content-Disposition": `attachment; filename="minutes-123.txt"`}),
			want:     "minutes-123.txt",
		},
		{
			name:     "url path",
			material: ietf.Material{URL: "https://example.org/materials/agenda-123-vcon.html"},
			resp:     resp(nil),
			want:     "agenda-123-vcon.html",
		},
		{
			name:     "content type fallback",
			material: ietf.Material{Type: "slides", URL: "https://example.org/"},
			resp:     resp(map[string]string{"Content-Type": "application/pdf"}),
			want:     "slides.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, materialFilename(tt.material, tt.resp))
		})
	}
}
