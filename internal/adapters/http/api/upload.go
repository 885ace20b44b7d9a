package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/okian/recruitstat/internal/adapters/sheet"
	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/logger"
)

// multipartMemory is the in-memory part of a parsed upload; larger files
// spill to temporary files.
const multipartMemory = 8 << 20

// UploadHandler handles roster uploads.
type UploadHandler struct {
	deps           Dependencies
	maxBytes       int64
	maxDescription int
	log            logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps Dependencies, maxBytes int64, maxDescription int, log logger.Logger) *UploadHandler {
	return &UploadHandler{deps: deps, maxBytes: maxBytes, maxDescription: maxDescription, log: log}
}

// HandleUpload handles POST /api/upload with multipart fields "file" and
// "description".
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			writeMessage(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("文件大小超过限制（最大%dMB）", h.maxBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "bad_request", "请选择要上传的文件")
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
	if !sheet.Supported(name) {
		writeMessage(w, http.StatusBadRequest, "bad_request",
			"不支持的文件格式，请上传 "+strings.Join(sheet.Extensions, "、")+" 文件")
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	if utf8.RuneCountInString(description) > h.maxDescription {
		writeMessage(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("描述信息不能超过%d个字符", h.maxDescription))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.Upload(r.Context(), types.UploadRequest{
		Filename:    name,
		Description: description,
		Content:     content,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
