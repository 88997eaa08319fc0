package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
)

const maxUploadBytes = 32 << 20

type uploadedFile struct {
	filename    string
	contentType string
	file        multipart.File
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// formValuePtr distinguishes an absent field from an empty one, which
// PATCH-style handlers rely on.
func formValuePtr(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(values[0])
	return &trimmed
}

func formBoolPtr(r *http.Request, key string) (*bool, error) {
	raw := formValuePtr(r, key)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func formIntPtr(r *http.Request, key string) (*int, error) {
	raw := formValuePtr(r, key)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be numeric").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// formFile opens a single optional upload. The caller owns the close
// func even when no file was sent.
func formFile(r *http.Request, field string) (*uploadedFile, func(), error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file").WithDetails(map[string]any{"field": field})
	}
	upload := &uploadedFile{
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
		file:        file,
	}
	return upload, func() { file.Close() }, nil
}

// formFiles opens every upload under one field, preserving the order
// the client sent them in.
func formFiles(r *http.Request, field string) ([]uploadedFile, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}
	headers := r.MultipartForm.File[field]
	uploads := make([]uploadedFile, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file").WithDetails(map[string]any{"field": field})
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, uploadedFile{
			filename:    header.Filename,
			contentType: header.Header.Get("Content-Type"),
			file:        file,
		})
	}
	return uploads, closeAll, nil
}
