// Package store persists file metadata, past-paper records, the
// translation run log, and the supported-language list in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/afrilearn/afriserver/internal/resolver"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_files (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		original_name TEXT,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		file_path TEXT,
		cloud_url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS past_papers (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		grade INTEGER NOT NULL,
		year INTEGER NOT NULL,
		paper_type TEXT NOT NULL,
		file_id TEXT,
		file_url TEXT,
		download_count INTEGER DEFAULT 0,
		last_downloaded_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(subject, grade, year, paper_type),
		FOREIGN KEY (file_id) REFERENCES document_files(id)
	);

	-- translations is a run log, not a cache; the pipeline never reads it.
	CREATE TABLE IF NOT EXISTS translations (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_chars INTEGER NOT NULL,
		service TEXT NOT NULL,
		latency_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS languages (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_papers_lookup ON past_papers(subject, grade, year);
	CREATE INDEX IF NOT EXISTS idx_papers_downloads ON past_papers(download_count DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedLanguages()
}

// seedLanguages populates the language list on first run.
func (s *Store) seedLanguages() error {
	seed := [][2]string{
		{"en", "English"}, {"fr", "French"}, {"pt", "Portuguese"},
		{"sw", "Swahili"}, {"zu", "Zulu"}, {"xh", "Xhosa"},
		{"af", "Afrikaans"}, {"st", "Sesotho"}, {"tn", "Setswana"},
		{"ar", "Arabic"}, {"am", "Amharic"}, {"ha", "Hausa"},
		{"yo", "Yoruba"}, {"ig", "Igbo"}, {"es", "Spanish"},
	}
	for _, l := range seed {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO languages (code, name) VALUES (?, ?)`, l[0], l[1]); err != nil {
			return err
		}
	}
	return nil
}

// DocumentFile is a persisted file reference record.
type DocumentFile struct {
	ID           string
	Filename     string
	OriginalName string
	MIMEType     string
	Size         int64
	Strategy     string
	FilePath     string
	CloudURL     string
	CreatedAt    time.Time
}

// PastPaper is a persisted exam paper record. FileURL is the legacy
// pre-migration relative URL kept for backward compatibility.
type PastPaper struct {
	ID               string
	Subject          string
	Grade            int
	Year             int
	PaperType        string
	FileID           string
	FileURL          string
	DownloadCount    int
	LastDownloadedAt *time.Time
	CreatedAt        time.Time
}

// Language is one supported translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Store) CreateDocumentFile(ctx context.Context, f DocumentFile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_files (id, filename, original_name, mime_type, size, strategy, file_path, cloud_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Filename, f.OriginalName, f.MIMEType, f.Size, f.Strategy, f.FilePath, f.CloudURL)
	return err
}

func (s *Store) GetDocumentFile(ctx context.Context, id string) (*DocumentFile, error) {
	var f DocumentFile
	var originalName, filePath, cloudURL sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, original_name, mime_type, size, strategy, file_path, cloud_url, created_at
		 FROM document_files WHERE id = ?`, id).
		Scan(&f.ID, &f.Filename, &originalName, &f.MIMEType, &f.Size, &f.Strategy, &filePath, &cloudURL, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.OriginalName = originalName.String
	f.FilePath = filePath.String
	f.CloudURL = cloudURL.String
	return &f, nil
}

// UpsertPastPaper inserts a paper or, when one already exists for the same
// subject/grade/year/paper type, repoints it at the new file. The existing
// download count survives re-uploads.
func (s *Store) UpsertPastPaper(ctx context.Context, p PastPaper) (*PastPaper, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO past_papers (id, subject, grade, year, paper_type, file_id, file_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject, grade, year, paper_type)
		 DO UPDATE SET file_id = excluded.file_id, file_url = excluded.file_url`,
		p.ID, p.Subject, p.Grade, p.Year, p.PaperType, nullable(p.FileID), nullable(p.FileURL))
	if err != nil {
		return nil, err
	}

	var saved PastPaper
	var fileID, fileURL sql.NullString
	var lastDownloaded sql.NullTime
	err = s.db.QueryRowContext(ctx,
		`SELECT id, subject, grade, year, paper_type, file_id, file_url, download_count, last_downloaded_at, created_at
		 FROM past_papers WHERE subject = ? AND grade = ? AND year = ? AND paper_type = ?`,
		p.Subject, p.Grade, p.Year, p.PaperType).
		Scan(&saved.ID, &saved.Subject, &saved.Grade, &saved.Year, &saved.PaperType,
			&fileID, &fileURL, &saved.DownloadCount, &lastDownloaded, &saved.CreatedAt)
	if err != nil {
		return nil, err
	}
	saved.FileID = fileID.String
	saved.FileURL = fileURL.String
	if lastDownloaded.Valid {
		saved.LastDownloadedAt = &lastDownloaded.Time
	}
	return &saved, nil
}

func (s *Store) GetPastPaper(ctx context.Context, id string) (*PastPaper, error) {
	var p PastPaper
	var fileID, fileURL sql.NullString
	var lastDownloaded sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject, grade, year, paper_type, file_id, file_url, download_count, last_downloaded_at, created_at
		 FROM past_papers WHERE id = ?`, id).
		Scan(&p.ID, &p.Subject, &p.Grade, &p.Year, &p.PaperType,
			&fileID, &fileURL, &p.DownloadCount, &lastDownloaded, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.FileID = fileID.String
	p.FileURL = fileURL.String
	if lastDownloaded.Valid {
		p.LastDownloadedAt = &lastDownloaded.Time
	}
	return &p, nil
}

// PaperFilter narrows ListPastPapers. Zero values mean "any".
type PaperFilter struct {
	Subject   string
	Grade     int
	Year      int
	PaperType string
}

func (s *Store) ListPastPapers(ctx context.Context, filter PaperFilter) ([]PastPaper, error) {
	query := `SELECT id, subject, grade, year, paper_type, file_id, file_url, download_count, last_downloaded_at, created_at
		 FROM past_papers WHERE 1=1`
	var args []any

	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.Grade != 0 {
		query += ` AND grade = ?`
		args = append(args, filter.Grade)
	}
	if filter.Year != 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if filter.PaperType != "" {
		query += ` AND paper_type = ?`
		args = append(args, filter.PaperType)
	}
	query += ` ORDER BY year DESC, paper_type ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []PastPaper
	for rows.Next() {
		var p PastPaper
		var fileID, fileURL sql.NullString
		var lastDownloaded sql.NullTime
		if err := rows.Scan(&p.ID, &p.Subject, &p.Grade, &p.Year, &p.PaperType,
			&fileID, &fileURL, &p.DownloadCount, &lastDownloaded, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.FileID = fileID.String
		p.FileURL = fileURL.String
		if lastDownloaded.Valid {
			p.LastDownloadedAt = &lastDownloaded.Time
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// RecordDownload increments a paper's download counter and returns the new
// count. This is the delegated side effect of a delivered download; the
// resolver itself never touches it.
func (s *Store) RecordDownload(ctx context.Context, id string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE past_papers SET download_count = download_count + 1, last_downloaded_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT download_count FROM past_papers WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// FileRef assembles the resolver reference for a paper from its linked
// document file record and its legacy URL.
func (s *Store) FileRef(ctx context.Context, paper *PastPaper) (resolver.FileRef, error) {
	ref := resolver.FileRef{
		Strategy:  resolver.StrategyLegacy,
		LegacyURL: paper.FileURL,
	}

	if paper.FileID != "" {
		f, err := s.GetDocumentFile(ctx, paper.FileID)
		if err != nil {
			return ref, err
		}
		ref.Strategy = resolver.Strategy(f.Strategy)
		ref.FilePath = f.FilePath
		ref.CloudURL = f.CloudURL
	}
	return ref, nil
}

// LogTranslation appends one entry to the translation run log.
func (s *Store) LogTranslation(ctx context.Context, id, sourceLang, targetLang, service string, sourceChars int, latency time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (id, source_lang, target_lang, source_chars, service, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceLang, targetLang, sourceChars, service, latency.Milliseconds())
	return err
}

func (s *Store) Languages(ctx context.Context) ([]Language, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM languages ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// Counts returns per-table record counts for the health endpoint.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"document_files", "past_papers", "translations", "languages"} {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
