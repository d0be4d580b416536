package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terroir/internal/models"
)

func uploadPhoto(t *testing.T, handler http.Handler, path, token, fileName string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte("not a real image, close enough"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProducerPhotoLifecycle(t *testing.T) {
	srv, handler := newTestServer(t)
	token, producerID := registerProducer(t, handler, "photos@example.com")

	w := uploadPhoto(t, handler, fmt.Sprintf("/api/producers/%d/photos", producerID), token, "ferme.jpg")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var photo models.Photo
	decodeResponse(t, w, &photo)
	require.NotEmpty(t, photo.FileName)

	stored := filepath.Join(srv.mediaDir, photo.FileName)
	_, err := os.Stat(stored)
	require.NoError(t, err, "uploaded file should be on disk")

	t.Run("photo appears on the profile", func(t *testing.T) {
		w := doJSON(t, handler, "GET", fmt.Sprintf("/api/producers/%d", producerID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var p models.Producer
		decodeResponse(t, w, &p)
		require.Len(t, p.Photos, 1)
	})

	t.Run("served under /media/", func(t *testing.T) {
		w := doJSON(t, handler, "GET", "/media/"+photo.FileName, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		w := uploadPhoto(t, handler, fmt.Sprintf("/api/producers/%d/photos", producerID), token, "notes.pdf")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upload to someone else's profile forbidden", func(t *testing.T) {
		otherToken, _ := registerProducer(t, handler, "voisin@example.com")
		w := uploadPhoto(t, handler, fmt.Sprintf("/api/producers/%d/photos", producerID), otherToken, "ferme.png")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete removes record and file", func(t *testing.T) {
		w := doJSON(t, handler, "DELETE", fmt.Sprintf("/api/photos/%d", photo.ID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		_, err := os.Stat(stored)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestProductPhotoLifecycle(t *testing.T) {
	_, handler := newTestServer(t)
	token, producerID := registerProducer(t, handler, "fromages@example.com")
	productID := createProduct(t, handler, token, producerID, ProductRequest{Name: "Tomme"})

	w := uploadPhoto(t, handler, fmt.Sprintf("/api/products/%d/photos", productID), token, "tomme.webp")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var photo models.Photo
	decodeResponse(t, w, &photo)

	t.Run("delete by another user forbidden", func(t *testing.T) {
		otherToken, _ := registerProducer(t, handler, "curieux@example.com")
		w := doJSON(t, handler, "DELETE", fmt.Sprintf("/api/product-photos/%d", photo.ID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete by owner", func(t *testing.T) {
		w := doJSON(t, handler, "DELETE", fmt.Sprintf("/api/product-photos/%d", photo.ID), token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
