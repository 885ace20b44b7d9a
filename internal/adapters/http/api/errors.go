package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/recruitstat/internal/domain/types"
	"github.com/okian/recruitstat/pkg/storage"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = types.ErrBackpressure
)

// wrapKind tags err with the operation and an API error kind.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// classify maps service errors to an HTTP status, a stable code and the
// message shown to users.
func classify(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, types.ErrInvalidUpload), errors.Is(err, ErrBadRequest),
		errors.Is(err, types.ErrUnknownFormat), errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrEmptyKey):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, types.ErrNoData):
		return http.StatusNotFound, "no_data", "请先上传数据文件"
	case errors.Is(err, types.ErrReportNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found", "报告文件不存在"
	case errors.Is(err, types.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure", "报告生成繁忙，请稍后重试"
	case errors.Is(err, types.ErrRenderTimeout):
		return http.StatusGatewayTimeout, "timeout", "报告生成超时"
	default:
		return http.StatusInternalServerError, "internal", err.Error()
	}
}
