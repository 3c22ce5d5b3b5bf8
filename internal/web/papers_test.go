package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/afrilearn/afriserver/internal/store"
)

func seedPaper(t *testing.T, env *testEnv, p store.PastPaper) *store.PastPaper {
	t.Helper()
	saved, err := env.db.UpsertPastPaper(context.Background(), p)
	if err != nil {
		t.Fatalf("seed paper: %v", err)
	}
	return saved
}

func TestListPapers_Filter(t *testing.T) {
	env := newTestEnv(t)
	seedPaper(t, env, store.PastPaper{ID: "a", Subject: "mathematics", Grade: 12, Year: 2023, PaperType: "p1"})
	seedPaper(t, env, store.PastPaper{ID: "b", Subject: "physics", Grade: 11, Year: 2023, PaperType: "p2"})

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers?subject=Mathematics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Papers []paperResponse `json:"papers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(body.Papers) != 1 || body.Papers[0].Subject != "mathematics" {
		t.Errorf("unexpected papers: %+v", body.Papers)
	}
}

func TestListPapers_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"papers":[]`) {
		t.Errorf("expected empty papers array, got %s", w.Body.String())
	}
}

func TestPaperFile_LegacyPath(t *testing.T) {
	env := newTestEnv(t)

	if err := os.MkdirAll(filepath.Join(env.legacyRoot, "grade12"), 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := filepath.Join(env.legacyRoot, "grade12", "maths-p1.pdf")
	if err := os.WriteFile(legacy, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file?filePath=grade12/maths-p1.pdf", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "maths-p1.pdf") {
		t.Errorf("unexpected disposition: %q", cd)
	}
	if w.Body.String() != "%PDF-1.4 fake" {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
}

func TestPaperFile_Preview(t *testing.T) {
	env := newTestEnv(t)

	legacy := filepath.Join(env.legacyRoot, "paper.pdf")
	if err := os.WriteFile(legacy, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file?filePath=paper.pdf&preview=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Errorf("expected inline disposition, got %q", cd)
	}
}

func TestPaperFile_Traversal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file?filePath=../../etc/passwd", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for traversal attempt, got %d", w.Code)
	}
}

func TestPaperFile_ByID_CloudRedirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.db.CreateDocumentFile(ctx, store.DocumentFile{
		ID: "file-1", Filename: "abc.pdf", MIMEType: "application/pdf", Size: 10,
		Strategy: "cloud", CloudURL: "https://cdn.example.com/abc.pdf",
	}); err != nil {
		t.Fatal(err)
	}
	paper := seedPaper(t, env, store.PastPaper{
		ID: "paper-1", Subject: "history", Grade: 10, Year: 2022, PaperType: "p1", FileID: "file-1",
	})

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file?id="+paper.ID, nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://cdn.example.com/abc.pdf" {
		t.Errorf("unexpected redirect target: %q", loc)
	}
}

func TestPaperFile_ByID_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file?id=missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPaperFile_MissingParams(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/past-papers/file", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRecordDownload(t *testing.T) {
	env := newTestEnv(t)
	paper := seedPaper(t, env, store.PastPaper{
		ID: "paper-1", Subject: "biology", Grade: 12, Year: 2024, PaperType: "p2",
	})

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/past-papers/"+paper.ID+"/download", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeJSON(t, w); body["downloadCount"] != float64(1) {
		t.Errorf("expected downloadCount 1, got %v", body["downloadCount"])
	}
}

func TestRecordDownload_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/past-papers/missing/download", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUploadPaper_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, map[string]string{"subject": "maths"}, "", "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/past-papers/upload", buf)
	req.Header.Set("Content-Type", contentType)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadPaper_InvalidPaperType(t *testing.T) {
	env := newTestEnv(t)

	fields := map[string]string{"subject": "maths", "grade": "12", "year": "2024", "paper": "p9"}
	buf, contentType := multipartBody(t, fields, "file", "maths.pdf", "application/pdf", []byte("pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/past-papers/upload", buf)
	req.Header.Set("Content-Type", contentType)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadPaper_Success(t *testing.T) {
	env := newTestEnv(t)

	// A Word document skips PDF structure validation, so plain bytes work.
	fields := map[string]string{"subject": "Chemistry", "grade": "11", "year": "2024", "paper": "p1"}
	buf, contentType := multipartBody(t, fields, "file", "chem-p1.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("doc bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/past-papers/upload", buf)
	req.Header.Set("Content-Type", contentType)

	w := env.do(t, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Paper paperResponse `json:"paper"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if body.Paper.Subject != "chemistry" || body.Paper.Grade != 11 {
		t.Errorf("unexpected paper: %+v", body.Paper)
	}

	// The binary landed in the uploads dir and the record points at it.
	entries, err := os.ReadDir(env.uploadsDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one stored file, got %d (err=%v)", len(entries), err)
	}
	saved, err := env.db.GetPastPaper(context.Background(), body.Paper.ID)
	if err != nil {
		t.Fatalf("GetPastPaper failed: %v", err)
	}
	if saved.FileID == "" {
		t.Error("expected paper to be linked to a document file")
	}
}

func TestUploadPaper_InvalidPDFRemoved(t *testing.T) {
	env := newTestEnv(t)

	fields := map[string]string{"subject": "maths", "grade": "12", "year": "2024", "paper": "p1"}
	buf, contentType := multipartBody(t, fields, "file", "broken.pdf", "application/pdf", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/past-papers/upload", buf)
	req.Header.Set("Content-Type", contentType)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken PDF, got %d: %s", w.Code, w.Body.String())
	}

	entries, _ := os.ReadDir(env.uploadsDir)
	if len(entries) != 0 {
		t.Errorf("expected rejected upload to be removed, found %d entries", len(entries))
	}
}
