package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/pkg/db/pagination"
)

// UploadFile ingests one multipart export. The optional status, class and
// format fields override what the pipeline would infer from the file.
func (s *Server) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	var status bookingdomain.Status
	if raw := strings.TrimSpace(c.PostForm("status")); raw != "" {
		parsed, ok := bookingdomain.ParseStatus(raw)
		if !ok {
			AbortWithError(c, fmt.Errorf("%w: %q", bookingdomain.ErrInvalidStatus, raw))
			return
		}
		status = parsed
	}

	var class bookingdomain.RecordClass
	if raw := strings.TrimSpace(c.PostForm("class")); raw != "" {
		parsed, ok := bookingdomain.ParseRecordClass(raw)
		if !ok {
			AbortWithError(c, fmt.Errorf("%w: %q", bookingdomain.ErrInvalidRecordClass, raw))
			return
		}
		class = parsed
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ingestdomain.ErrInvalidUpload, err))
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if s.cfg.UploadMaxBytes > 0 {
		reader = io.LimitReader(file, s.cfg.UploadMaxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ingestdomain.ErrInvalidUpload, err))
		return
	}

	report, err := s.ingestSvc.Ingest(c.Request.Context(), ingestdomain.Upload{
		Filename: header.Filename,
		Content:  content,
		Status:   status,
		Class:    class,
		Format:   strings.TrimSpace(c.PostForm("format")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("batch_id", report.BatchID)

	c.JSON(http.StatusCreated, gin.H{"data": report})
}

func (s *Server) ListUploads(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingestSvc.ListBatches(c.Request.Context(), ingestdomain.ListBatchesRequest{
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
