package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-identity-service/internal/interface/middleware"
	"github.com/oksasatya/go-identity-service/pkg/response"
)

const maxUploadBytes = 10 << 20

// Upload stores the multipart "file" field in the caller's personal folder.
func (h *UserHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "is required"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Write(c, response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "unreadable"}))
		return
	}
	defer func() { _ = f.Close() }()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.Svc.UploadToFolder(c.Request.Context(), middleware.UserID(c), f, fh.Filename, contentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Write(c, response.Success(c, http.StatusCreated, gin.H{"url": url}, "uploaded", nil))
}
