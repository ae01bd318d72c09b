package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowvault/csvvault-backend/api/responses"
	"github.com/rowvault/csvvault-backend/api/validators"
	"github.com/rowvault/csvvault-backend/internal/uploads"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/logger"
)

const uploadFormField = "file"

type uploadResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	FileID   int64  `json:"file_id"`
	Filename string `json:"filename"`
	RowCount int    `json:"row_count"`
}

// UploadFile accepts a multipart CSV upload and runs it through the ingestion
// pipeline.
func UploadFile(svc uploads.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		part, header, err := r.FormFile(uploadFormField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "uploaded file exceeds the size limit"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart field 'file' is required"))
			return
		}
		defer part.Close()

		content, err := io.ReadAll(part)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "uploaded file exceeds the size limit"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file"))
			return
		}

		result, err := svc.Ingest(r.Context(), header.Filename, content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, uploadResponse{
			Status:   "success",
			Message:  "File uploaded and processed successfully",
			FileID:   result.ID,
			Filename: result.Filename,
			RowCount: result.RowCount,
		})
	}
}

// ListFiles returns upload records, newest first.
func ListFiles(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", uploads.DefaultListLimit, 1, uploads.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListFiles(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// GetFile returns one upload record by id.
func GetFile(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(chi.URLParam(r, "fileID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetFile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
