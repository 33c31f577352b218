package forumfront

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/forumfront/api"
	"github.com/eringen/forumfront/section"
)

// ErrDraftNotFound is returned when a draft does not exist.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is a post being composed. It lives only in the local store until
// it is submitted to the backend.
type Draft struct {
	ID          string
	UserID      string
	PostID      api.ID // set when editing an existing post
	Title       string
	Description string
	Category    string
	MediaURL    string
	Sections    section.Sections
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Editing reports whether the draft updates an existing post.
func (d Draft) Editing() bool {
	return d.PostID != ""
}

// Upload is an image stored under the static uploads directory.
type Upload struct {
	Filename     string
	OriginalName string
	UserID       string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// URL is the public path of the upload.
func (u Upload) URL() string {
	return "/public/" + uploadsSubdir + "/" + u.Filename
}

// Store wraps a SQLite database holding drafts and upload metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    post_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    media_url TEXT NOT NULL DEFAULT '',
    sections TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS drafts_user ON drafts (user_id, updated_at);
CREATE TABLE IF NOT EXISTS uploads (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    user_id TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const draftColumns = `id, user_id, post_id, title, description, category, media_url, sections, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (Draft, error) {
	var d Draft
	var postID, sections, created, updated string
	if err := row.Scan(&d.ID, &d.UserID, &postID, &d.Title, &d.Description, &d.Category,
		&d.MediaURL, &sections, &created, &updated); err != nil {
		return Draft{}, err
	}
	d.PostID = api.ID(postID)
	if err := json.Unmarshal([]byte(sections), &d.Sections); err != nil {
		return Draft{}, fmt.Errorf("draft %s: sections: %w", d.ID, err)
	}
	if d.Sections == nil {
		d.Sections = section.Sections{}
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return d, nil
}

// CreateDraft inserts d, assigning an id when it has none.
func (s *Store) CreateDraft(d Draft) (Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Sections == nil {
		d.Sections = section.Sections{}
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	sections, err := json.Marshal(d.Sections)
	if err != nil {
		return Draft{}, err
	}
	_, err = s.db.Exec(`INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.PostID.String(), d.Title, d.Description, d.Category, d.MediaURL,
		string(sections), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return Draft{}, err
	}
	return d, nil
}

// GetDraft returns a draft by id.
func (s *Store) GetDraft(id string) (Draft, error) {
	d, err := scanDraft(s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	return d, err
}

// DraftForPost returns the user's existing draft editing postID.
func (s *Store) DraftForPost(userID string, postID api.ID) (Draft, error) {
	d, err := scanDraft(s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE user_id = ? AND post_id = ? ORDER BY updated_at DESC LIMIT 1`,
		userID, postID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	return d, err
}

// ListDrafts returns a user's drafts, most recently edited first.
func (s *Store) ListDrafts(userID string) ([]Draft, error) {
	rows, err := s.db.Query(`SELECT `+draftColumns+` FROM drafts WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// SaveDraft writes every field of d and bumps UpdatedAt.
func (s *Store) SaveDraft(d *Draft) error {
	sections, err := json.Marshal(d.Sections)
	if err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(`UPDATE drafts SET post_id = ?, title = ?, description = ?, category = ?, media_url = ?, sections = ?, updated_at = ? WHERE id = ?`,
		d.PostID.String(), d.Title, d.Description, d.Category, d.MediaURL, string(sections),
		d.UpdatedAt.Format(time.RFC3339Nano), d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// DeleteDraft removes a draft by id.
func (s *Store) DeleteDraft(id string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	return err
}

// SaveUpload records upload metadata.
func (s *Store) SaveUpload(u Upload) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO uploads (filename, original_name, user_id, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Filename, u.OriginalName, u.UserID, u.Width, u.Height, u.Size, u.UploadedAt)
	return err
}

// UploadExists reports whether filename is already recorded.
func (s *Store) UploadExists(filename string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM uploads WHERE filename = ?`, filename).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUploads returns a user's uploads, newest first.
func (s *Store) ListUploads(userID string) ([]Upload, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, user_id, width, height, size, uploaded_at FROM uploads WHERE user_id = ? ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.Filename, &u.OriginalName, &u.UserID, &u.Width, &u.Height, &u.Size, &u.UploadedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
