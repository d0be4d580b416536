package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"terroir/internal/events"
	"terroir/internal/metrics"
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// handleUploadProducerPhoto stores a photo for the caller's profile.
// POST /api/producers/{id}/photos (multipart, field "photo")
func (s *HTTPServer) handleUploadProducerPhoto(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producer_photo_upload", "2xx")

	producer, ok := s.ownedProducer(w, r)
	if !ok {
		return
	}

	fileName, ok := s.storeUploadedPhoto(w, r)
	if !ok {
		return
	}

	photo, err := s.db.CreateProducerPhoto(r.Context(), producer.ID, fileName)
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", producer.ID).Msg("failed to record photo")
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	metrics.IncPhotoUpload()
	s.publish(events.TypePhotoUploaded, producer.ID)
	writeJSON(w, http.StatusCreated, photo)
}

// handleDeleteProducerPhoto removes a photo from the caller's profile.
// DELETE /api/photos/{id}
func (s *HTTPServer) handleDeleteProducerPhoto(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producer_photo_delete", "2xx")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.db.GetProducerPhoto(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	producer, err := s.db.GetProducer(r.Context(), photo.OwnerID)
	if err != nil || producer.UserID != userID(r) {
		writeError(w, http.StatusForbidden, "not your photo")
		return
	}

	if err := s.db.DeleteProducerPhoto(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int64("photo_id", id).Msg("failed to delete photo")
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}
	s.removeStoredFile(photo.FileName)

	s.publish(events.TypePhotoUploaded, producer.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleUploadProductPhoto stores a photo for a product the caller owns.
// POST /api/products/{id}/photos (multipart, field "photo")
func (s *HTTPServer) handleUploadProductPhoto(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("product_photo_upload", "2xx")

	product, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}

	fileName, ok := s.storeUploadedPhoto(w, r)
	if !ok {
		return
	}

	photo, err := s.db.CreateProductPhoto(r.Context(), product.ID, fileName)
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", product.ID).Msg("failed to record photo")
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	metrics.IncPhotoUpload()
	s.publish(events.TypePhotoUploaded, product.ProducerID)
	writeJSON(w, http.StatusCreated, photo)
}

// handleDeleteProductPhoto removes a product photo the caller owns.
// DELETE /api/product-photos/{id}
func (s *HTTPServer) handleDeleteProductPhoto(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("product_photo_delete", "2xx")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	photo, err := s.db.GetProductPhoto(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	product, err := s.db.GetProduct(r.Context(), photo.OwnerID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	producer, err := s.db.GetProducer(r.Context(), product.ProducerID)
	if err != nil || producer.UserID != userID(r) {
		writeError(w, http.StatusForbidden, "not your photo")
		return
	}

	if err := s.db.DeleteProductPhoto(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int64("photo_id", id).Msg("failed to delete photo")
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}
	s.removeStoredFile(photo.FileName)

	s.publish(events.TypePhotoUploaded, product.ProducerID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// storeUploadedPhoto validates the multipart upload and writes it under
// the media dir with a fresh uuid name. Writes the error response itself.
func (s *HTTPServer) storeUploadedPhoto(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return "", false
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo field is required")
		return "", false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedPhotoExtensions[ext] {
		writeError(w, http.StatusBadRequest, "unsupported photo type")
		return "", false
	}

	fileName := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	dest, err := os.Create(filepath.Join(s.mediaDir, fileName))
	if err != nil {
		s.log.Error().Err(err).Str("file", fileName).Msg("failed to create media file")
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return "", false
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		s.log.Error().Err(err).Str("file", fileName).Msg("failed to write media file")
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return "", false
	}

	return fileName, true
}

func (s *HTTPServer) removeStoredFile(fileName string) {
	// Stored names are uuid-generated; still refuse anything with a path
	// separator.
	if strings.ContainsAny(fileName, `/\`) {
		return
	}
	if err := os.Remove(filepath.Join(s.mediaDir, fileName)); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("file", fileName).Msg("failed to remove media file")
	}
}
