package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0}

func newLocalStorage(t *testing.T) *StorageService {
	t.Helper()
	cfg := testConfig()
	cfg.Server.UploadDir = t.TempDir()

	storage, err := NewStorageService(cfg)
	require.NoError(t, err)
	return storage
}

func TestSaveProductImageLocally(t *testing.T) {
	storage := newLocalStorage(t)

	ref, err := storage.SaveProductImage(t.Context(), Upload{
		Filename: "Fontana.PNG",
		Size:     int64(len(pngHeader)),
		Body:     bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/products/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)

	path := filepath.Join(storage.uploadDir, strings.TrimPrefix(ref, "/uploads/"))
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	require.NoError(t, storage.DeleteImage(t.Context(), ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Foreign and traversal references are ignored.
	assert.NoError(t, storage.DeleteImage(t.Context(), "https://cdn.example.com/x.png"))
	assert.NoError(t, storage.DeleteImage(t.Context(), "/uploads/../secret"))
}

func TestSaveProductImageRejectsBadFiles(t *testing.T) {
	storage := newLocalStorage(t)

	tests := []struct {
		name   string
		upload Upload
	}{
		{"extension", Upload{Filename: "script.exe", Body: bytes.NewReader(pngHeader)}},
		{"content", Upload{Filename: "fake.png", Body: strings.NewReader("definitely not an image")}},
		{"declared size", Upload{Filename: "big.png", Size: 2 * 1024 * 1024, Body: bytes.NewReader(pngHeader)}},
		{"actual size", Upload{Filename: "big.png", Body: bytes.NewReader(append(pngHeader, make([]byte, 1024*1024)...))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.SaveProductImage(t.Context(), tt.upload)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "error: %v", err)
		})
	}
}

func TestIsValidImageType(t *testing.T) {
	assert.True(t, isValidImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.True(t, isValidImageType([]byte("GIF89a......")))
	assert.True(t, isValidImageType([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.False(t, isValidImageType([]byte("GIF")))
	assert.False(t, isValidImageType(nil))
}
