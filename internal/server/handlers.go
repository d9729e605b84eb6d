package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimson-sun/riskscan/internal/ingest"
	"github.com/crimson-sun/riskscan/internal/model"
	"github.com/crimson-sun/riskscan/internal/output"
)

// multipartSlack covers boundaries and part headers around the file itself.
const multipartSlack = 64 << 10

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Fraud detection API is running"})
}

func (s *Server) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readiness(c *gin.Context) {
	healthy, statuses := s.health.CheckAll(c.Request.Context())
	code, status := http.StatusOK, "ready"
	if !healthy {
		code, status = http.StatusServiceUnavailable, "not_ready"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// predict scores an uploaded batch. The multipart field is "file".
func (s *Server) predict(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+multipartSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.fail(c, model.ParseError(err, "Invalid CSV format: file exceeds the upload limit"))
		case hasEmptyFileField(c):
			abortWithError(c, http.StatusBadRequest, "No selected file")
		default:
			abortWithError(c, http.StatusBadRequest, "No file part")
		}
		return
	}
	if fh.Filename == "" {
		abortWithError(c, http.StatusBadRequest, "No selected file")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, model.ParseError(err, "Invalid CSV format: could not open upload"))
		return
	}
	defer f.Close()

	batch, err := ingest.Read(f, fh.Filename, s.maxUpload)
	if err != nil {
		s.fail(c, err)
		return
	}
	logging(c).Info("batch decoded",
		"file", fh.Filename,
		"format", batch.Format.String(),
		"encoding", batch.Encoding,
		"rows", len(batch.Records),
		"columns", len(batch.Columns),
	)

	report, err := s.scorer.Process(ctx, batch.Records)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)

	if s.sink != nil {
		result := output.NewResult(fh.Filename, report)
		if err := s.sink.Write(context.WithoutCancel(ctx), result); err != nil {
			logging(c).Warn("report delivery failed", "result_id", result.ID, "error", err)
		}
	}
}

// hasEmptyFileField reports whether the form carried a "file" part without a
// file name, which multipart parsing files under values.
func hasEmptyFileField(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

// fail maps a batch error to its HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	kind := model.KindOf(err)
	msg := err.Error()
	if kind == model.KindUnknown {
		msg = "Error processing data: " + msg
	}
	if kind.Status() >= 500 {
		logging(c).Error("batch rejected", "kind", kind.String(), "error", err)
	} else {
		logging(c).Warn("batch rejected", "kind", kind.String(), "error", err)
	}
	abortWithError(c, kind.Status(), msg)
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
