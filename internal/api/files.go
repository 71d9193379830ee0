package api

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/amingeek/task-manager/internal/utils"
)

// maxUploadSize bounds one multipart upload.
const maxUploadSize = 10 << 20

func (s *Server) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	files, err := s.store.Files(id, userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "OK", files)
}

// UploadFileHandler accepts multipart fields file, task_id and notes.
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.fail(w, r, utils.BadRequest("invalid multipart form: "+err.Error()))
		return
	}
	taskID, err := strconv.ParseUint(r.FormValue("task_id"), 10, 64)
	if err != nil {
		s.fail(w, r, utils.BadRequest("invalid task_id"))
		return
	}
	part, hdr, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, utils.BadRequest("file is required"))
		return
	}
	defer part.Close()
	content, err := io.ReadAll(part)
	if err != nil {
		s.fail(w, r, utils.BadRequest("read upload: "+err.Error()))
		return
	}

	name := filepath.Base(hdr.Filename)
	mimeType := hdr.Header.Get("Content-Type")
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		mimeType = byExt
	}
	f, err := s.store.AddFile(uint(taskID), userID(r), name, mimeType, r.FormValue("notes"), content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "File uploaded", f)
}

// DownloadFileHandler streams the raw file.
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.store.FileContent(id, userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ct := d.File.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.File.Filename}))
	w.Header().Set("ETag", strconv.Quote(d.Key))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Content)
}

func (s *Server) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteFile(id, userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "File deleted", nil)
}
