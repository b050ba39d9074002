package handler

import (
	"io"
	"net/http"

	"reqtrack/backend/internal/config"
	"reqtrack/backend/internal/lifecycle"

	"github.com/gin-gonic/gin"
)

// UploadFiles handles POST /requests/:id/files. Files arrive as multipart
// form parts named "files"; is_response=true marks a response batch that
// goes through the security pipeline. Results are reported per file; a
// partial failure keeps the successes and returns 207.
func (h *Handler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in batch"})
		return
	}
	if len(parts) > config.MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many files in one batch"})
		return
	}

	isResponse := c.Query("is_response") == "true" || c.PostForm("is_response") == "true"

	batch := make([]lifecycle.UploadFile, 0, len(parts))
	for _, part := range parts {
		file, err := part.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file " + part.Filename})
			return
		}
		// Read one past the cap so oversized files are rejected by the
		// engine's validation rather than silently truncated.
		data, err := io.ReadAll(io.LimitReader(file, config.MaxUploadSize+1))
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file " + part.Filename})
			return
		}

		batch = append(batch, lifecycle.UploadFile{
			Name:     part.Filename,
			MimeType: part.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	results, err := h.Engine.UploadFiles(c.Param("id"), batch, isResponse, c.GetString("user_id"))
	if err != nil {
		if results != nil {
			c.JSON(http.StatusMultiStatus, gin.H{"results": results, "error": err.Error()})
			return
		}
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListFiles handles GET /requests/:id/files.
func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.Storage.GetRequestFiles(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}
