package web

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afrilearn/afriserver/internal/extractor"
	"github.com/afrilearn/afriserver/internal/pipeline"
	"github.com/afrilearn/afriserver/internal/translator"
)

// handleTranslateFile accepts a PDF or Word upload, translates its text and
// streams back a generated .docx. Validation happens before anything is
// written to disk; once the file is saved the pipeline owns its cleanup.
func (s *Server) handleTranslateFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "No file uploaded", "")
		return
	}

	target := c.PostForm("target")
	if target == "" {
		errorJSON(c, http.StatusBadRequest, "No target language specified", "")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if _, ok := extractor.FormatForMIME(mimeType); !ok {
		errorJSON(c, http.StatusBadRequest, "Invalid file type. Only PDF and Word documents are allowed.", "")
		return
	}

	if fileHeader.Size > s.cfg.MaxUploadBytes {
		errorJSON(c, http.StatusRequestEntityTooLarge, "File too large", "")
		return
	}

	uploadPath := filepath.Join(s.cfg.UploadsDir, "upload_"+uuid.New().String()+filepath.Ext(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, uploadPath); err != nil {
		s.log.WithError(err).Error("failed to save uploaded file")
		errorJSON(c, http.StatusInternalServerError, "Failed to save uploaded file", "")
		return
	}

	out, err := s.pipe.Run(c.Request.Context(), pipeline.Upload{
		Path:         uploadPath,
		OriginalName: fileHeader.Filename,
		MIMEType:     mimeType,
		Size:         fileHeader.Size,
	}, target)
	if err != nil {
		s.log.WithError(err).WithField("target", target).Error("file translation failed")
		errorJSON(c, http.StatusInternalServerError, "Translation failed", err.Error())
		return
	}
	defer func() {
		if err := out.Remove(); err != nil {
			s.log.WithError(err).WithField("path", out.Path).Warn("failed to remove translated file")
		}
	}()

	c.FileAttachment(out.Path, out.Filename)
}

type translateTextRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
}

// handleTranslateText translates a raw text snippet. The response shape
// mirrors the Google Translate REST API so existing clients keep working.
func (s *Server) handleTranslateText(c *gin.Context) {
	var req translateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Q == "" || req.Target == "" {
		errorJSON(c, http.StatusBadRequest, "Missing required parameters: q (text) and target (language code)", "")
		return
	}

	res, err := s.text.Translate(c.Request.Context(), translator.Request{
		Text:       req.Q,
		TargetLang: req.Target,
	})
	if err != nil {
		s.log.WithError(err).WithField("target", req.Target).Error("text translation failed")
		errorJSON(c, http.StatusInternalServerError, "Translation failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"translations": []gin.H{
				{"translatedText": res.TranslatedText},
			},
		},
	})
}
