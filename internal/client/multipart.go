package client

import (
	"bytes"
	"io"
	"mime/multipart"
)

// MultipartBody describes a single-file form upload.
type MultipartBody struct {
	FileField string
	Filename  string
	File      io.Reader
	Fields    map[string]string
}

// encode buffers the form. Uploads are bounded by the request timeout, not streamed.
func (mb *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range mb.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if mb.File != nil {
		field := mb.FileField
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, mb.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, mb.File); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
