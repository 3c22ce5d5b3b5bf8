package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/sirupsen/logrus"

	"github.com/afrilearn/afriserver/internal/resolver"
	"github.com/afrilearn/afriserver/internal/store"
)

var validPaperTypes = map[string]bool{"p1": true, "p2": true, "p3": true}

// paperResponse is the wire shape of a past paper.
type paperResponse struct {
	ID               string     `json:"id"`
	Subject          string     `json:"subject"`
	Grade            int        `json:"grade"`
	Year             int        `json:"year"`
	PaperType        string     `json:"paperType"`
	FileURL          string     `json:"fileUrl,omitempty"`
	DownloadCount    int        `json:"downloadCount"`
	LastDownloadedAt *time.Time `json:"lastDownloadedAt,omitempty"`
}

func toPaperResponse(p *store.PastPaper) paperResponse {
	return paperResponse{
		ID:               p.ID,
		Subject:          p.Subject,
		Grade:            p.Grade,
		Year:             p.Year,
		PaperType:        p.PaperType,
		FileURL:          p.FileURL,
		DownloadCount:    p.DownloadCount,
		LastDownloadedAt: p.LastDownloadedAt,
	}
}

func (s *Server) handleListPapers(c *gin.Context) {
	filter := store.PaperFilter{
		Subject:   strings.ToLower(c.Query("subject")),
		PaperType: c.Query("paperType"),
	}
	if g := c.Query("grade"); g != "" {
		filter.Grade, _ = strconv.Atoi(g)
	}
	if y := c.Query("year"); y != "" {
		filter.Year, _ = strconv.Atoi(y)
	}

	papers, err := s.db.ListPastPapers(c.Request.Context(), filter)
	if err != nil {
		s.log.WithError(err).Error("failed to list past papers")
		errorJSON(c, http.StatusInternalServerError, "Failed to fetch past papers", "")
		return
	}

	out := make([]paperResponse, 0, len(papers))
	for i := range papers {
		out = append(out, toPaperResponse(&papers[i]))
	}
	c.JSON(http.StatusOK, gin.H{"papers": out})
}

// handlePaperFile serves a past-paper binary. Lookup is by record id or, for
// legacy clients, a bare relative filePath. Cloud-hosted files redirect.
func (s *Server) handlePaperFile(c *gin.Context) {
	var ref resolver.FileRef

	switch {
	case c.Query("id") != "":
		paper, err := s.db.GetPastPaper(c.Request.Context(), c.Query("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				errorJSON(c, http.StatusNotFound, "Past paper not found", "")
				return
			}
			errorJSON(c, http.StatusInternalServerError, "Failed to fetch past paper", "")
			return
		}
		ref, err = s.db.FileRef(c.Request.Context(), paper)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			errorJSON(c, http.StatusInternalServerError, "Failed to fetch past paper", "")
			return
		}
	case c.Query("filePath") != "":
		ref = resolver.FileRef{
			Strategy:  resolver.StrategyLegacy,
			LegacyURL: c.Query("filePath"),
		}
	default:
		errorJSON(c, http.StatusBadRequest, "Missing filePath query parameter", "")
		return
	}

	res, err := s.papers.Resolve(ref)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "File not found", "")
			return
		}
		s.log.WithError(err).Error("failed to resolve past paper file")
		errorJSON(c, http.StatusInternalServerError, "Failed to serve file", "")
		return
	}

	if res.IsRedirect() {
		c.Redirect(http.StatusFound, res.RedirectURL)
		return
	}

	disposition := "attachment"
	if c.Query("preview") == "true" {
		disposition = "inline"
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, res.Filename()))
	c.File(res.Path)
}

func (s *Server) handleRecordDownload(c *gin.Context) {
	count, err := s.db.RecordDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "Past paper not found", "")
			return
		}
		s.log.WithError(err).Error("failed to record download")
		errorJSON(c, http.StatusInternalServerError, "Failed to record download", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Download recorded",
		"downloadCount": count,
	})
}

// handleUploadPaper stores a new past paper: the binary goes to the uploads
// directory, its metadata and the paper record go to the store. A re-upload
// for the same subject/grade/year/paper repoints the existing record.
func (s *Server) handleUploadPaper(c *gin.Context) {
	subject := c.PostForm("subject")
	grade := c.PostForm("grade")
	year := c.PostForm("year")
	paperType := c.PostForm("paper")
	fileHeader, fileErr := c.FormFile("file")

	if subject == "" || grade == "" || year == "" || paperType == "" || fileErr != nil {
		errorJSON(c, http.StatusBadRequest, "Missing required fields: grade, subject, year, paper, and file", "")
		return
	}
	if !validPaperTypes[paperType] {
		errorJSON(c, http.StatusBadRequest, "Invalid paper type. Must be p1, p2, or p3", "")
		return
	}

	gradeN, err := strconv.Atoi(grade)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid grade", "")
		return
	}
	yearN, err := strconv.Atoi(year)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid year", "")
		return
	}

	filename := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	path := filepath.Join(s.cfg.UploadsDir, filename)
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		s.log.WithError(err).Error("failed to save past paper file")
		errorJSON(c, http.StatusInternalServerError, "Failed to save file", "")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "application/pdf" {
		if err := api.ValidateFile(path, nil); err != nil {
			os.Remove(path)
			errorJSON(c, http.StatusBadRequest, "Invalid PDF file", "")
			return
		}
		pages, err := api.PageCountFile(path)
		if err != nil {
			os.Remove(path)
			errorJSON(c, http.StatusBadRequest, "Invalid PDF file", "")
			return
		}
		s.log.WithFields(logrus.Fields{"file": filename, "pages": pages}).Debug("validated past paper pdf")
	}

	fileID := uuid.New().String()
	if err := s.db.CreateDocumentFile(c.Request.Context(), store.DocumentFile{
		ID:           fileID,
		Filename:     filename,
		OriginalName: fileHeader.Filename,
		MIMEType:     mimeType,
		Size:         fileHeader.Size,
		Strategy:     string(resolver.StrategyLocal),
		FilePath:     path,
	}); err != nil {
		os.Remove(path)
		s.log.WithError(err).Error("failed to persist document file")
		errorJSON(c, http.StatusInternalServerError, "Failed to save past paper", "")
		return
	}

	paper, err := s.db.UpsertPastPaper(c.Request.Context(), store.PastPaper{
		ID:        uuid.New().String(),
		Subject:   strings.ToLower(subject),
		Grade:     gradeN,
		Year:      yearN,
		PaperType: paperType,
		FileID:    fileID,
	})
	if err != nil {
		os.Remove(path)
		s.log.WithError(err).Error("failed to persist past paper")
		errorJSON(c, http.StatusInternalServerError, "Failed to save past paper", "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Past paper uploaded",
		"paper":   toPaperResponse(paper),
	})
}
