package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"shelflife-api/internal/backup"
	"shelflife-api/pkg/apierror"
	"shelflife-api/pkg/fsutil"
	"shelflife-api/pkg/response"
	"shelflife-api/pkg/uid"
)

// maxUploadBytes bounds backup uploads (the database plus images).
const maxUploadBytes = 512 << 20

// BackupHandler handles backup and restore HTTP requests.
type BackupHandler struct {
	engine     *backup.Engine
	sharer     backup.FileSharer
	scratchDir string
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(engine *backup.Engine, sharer backup.FileSharer, scratchDir string) *BackupHandler {
	return &BackupHandler{engine: engine, sharer: sharer, scratchDir: scratchDir}
}

// ExportFull handles POST /api/v1/backup/export
//
// Runs a full export and shares the archive into the backup directory.
// With ?download=true the archive streams back in the response instead.
func (h *BackupHandler) ExportFull(w http.ResponseWriter, r *http.Request) {
	archive, err := h.engine.ExportFull(r.Context())
	if err != nil {
		response.Error(w, mapBackupError(err))
		return
	}
	defer os.Remove(archive)

	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(archive)))
		http.ServeFile(w, r, archive)
		return
	}

	dest, err := h.sharer.Share(r.Context(), archive, filepath.Base(archive))
	if err != nil {
		if errors.Is(err, backup.ErrCancelled) {
			response.OK(w, map[string]interface{}{"cancelled": true})
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"file": dest})
}

// ImportFull handles POST /api/v1/backup/import
//
// Accepts the archive as a multipart upload under "file". Saving the upload
// to scratch doubles as the local-copy step: the engine never reads the
// client's original source.
func (h *BackupHandler) ImportFull(w http.ResponseWriter, r *http.Request) {
	local, cleanup, err := h.saveUpload(r)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	defer cleanup()

	if err := h.engine.ImportFull(r.Context(), &backup.StaticPicker{Path: local}); err != nil {
		response.Error(w, mapBackupError(err))
		return
	}

	response.OK(w, map[string]interface{}{"restored": true})
}

// ExportCatalog handles POST /api/v1/backup/catalog/export
func (h *BackupHandler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	path, err := h.engine.ExportCatalog(r.Context())
	if err != nil {
		response.Error(w, mapBackupError(err))
		return
	}
	defer os.Remove(path)

	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
		http.ServeFile(w, r, path)
		return
	}

	dest, err := h.sharer.Share(r.Context(), path, filepath.Base(path))
	if err != nil {
		if errors.Is(err, backup.ErrCancelled) {
			response.OK(w, map[string]interface{}{"cancelled": true})
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"file": dest})
}

// ImportCatalog handles POST /api/v1/backup/catalog/import
func (h *BackupHandler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	local, cleanup, err := h.saveUpload(r)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	defer cleanup()

	imported, err := h.engine.ImportCatalog(r.Context(), &backup.StaticPicker{Path: local})
	if err != nil {
		response.Error(w, mapBackupError(err))
		return
	}

	response.OK(w, map[string]interface{}{"imported": imported})
}

// saveUpload persists the multipart "file" part into the scratch directory
// and returns its path plus a cleanup func.
func (h *BackupHandler) saveUpload(r *http.Request) (string, func(), error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("multipart field \"file\" is required")
	}
	defer file.Close()

	if err := fsutil.EnsureDir(h.scratchDir); err != nil {
		return "", nil, err
	}

	local := filepath.Join(h.scratchDir, "upload-"+uid.New()+filepath.Ext(header.Filename))
	out, err := os.Create(local)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(local)
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(local)
		return "", nil, err
	}

	return local, func() { os.Remove(local) }, nil
}

// mapBackupError converts backup engine errors to API errors. Fatal restore
// failures pass through as 500s with their full message - the user needs to
// know local state requires rebuilding.
func mapBackupError(err error) error {
	switch {
	case errors.Is(err, backup.ErrNothingToBackup):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, backup.ErrInvalidBackup):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, backup.ErrRestoreFatal):
		return apierror.InternalError(err.Error())
	default:
		return err
	}
}
