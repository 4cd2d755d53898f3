package entities

import "time"

type BookFormat string

const (
	BookFormatEPUB BookFormat = "epub"
	BookFormatFB2  BookFormat = "fb2"
	BookFormatDOCX BookFormat = "docx"
	BookFormatPDF  BookFormat = "pdf"
)

type Book struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	Title    string     `gorm:"index;size:512" json:"title"`
	Authors  []Author   `gorm:"many2many:book_authors" json:"authors,omitempty"`
	ISBN     string     `gorm:"size:20" json:"isbn,omitempty"`
	CoverURL string     `gorm:"size:2048" json:"cover_url,omitempty"`
	FilePath string     `gorm:"size:1024" json:"file_path,omitempty"`
	Format   BookFormat `gorm:"size:10" json:"format,omitempty"`
	Progress float64    `json:"progress"` // 0.0-1.0 reading position

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is kept as a typed row rather than a serialized name list so the
// book-author relation stays queryable.
type Author struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:256" json:"name"`
}

type Shelf struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	Name        string `gorm:"index;size:256" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Books       []Book `gorm:"many2many:shelf_books" json:"books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Quote struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	BookID   uint   `gorm:"index" json:"book_id"` // local Book key
	Text     string `gorm:"type:text" json:"text"`
	Note     string `gorm:"type:text" json:"note,omitempty"`
	Position int    `gorm:"index" json:"position"`
	Chapter  string `gorm:"size:256" json:"chapter,omitempty"`
	Color    string `gorm:"size:10" json:"color,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Bookmark struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	BookID   uint   `gorm:"index" json:"book_id"`
	Position int    `gorm:"index" json:"position"`
	Name     string `gorm:"size:256" json:"name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Note struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	BookID  *uint  `gorm:"index" json:"book_id,omitempty"` // optional local Book key
	Title   string `gorm:"size:512" json:"title"`
	Content string `gorm:"type:text" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the locally cached profile. It is written by the session layer and
// never reconciled by the sync pass.
type User struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	Name  string `gorm:"size:256" json:"name"`
	Email string `gorm:"uniqueIndex;size:255" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookContent holds the parsed HTML of a downloaded book. Fetched by the
// download path, cascade-removed with its book, never reconciled.
type BookContent struct {
	LocalID  uint `gorm:"primaryKey" json:"local_id"`
	SyncMeta `json:"sync"`

	BookID uint   `gorm:"uniqueIndex" json:"book_id"`
	HTML   string `gorm:"type:text" json:"html"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string        { return "books" }
func (Author) TableName() string      { return "authors" }
func (Shelf) TableName() string       { return "shelves" }
func (Quote) TableName() string       { return "quotes" }
func (Bookmark) TableName() string    { return "bookmarks" }
func (Note) TableName() string        { return "notes" }
func (User) TableName() string        { return "users" }
func (BookContent) TableName() string { return "book_contents" }

// SyncRef exposes the embedded sync metadata for the reconciler.
func (b *Book) SyncRef() *SyncMeta        { return &b.SyncMeta }
func (s *Shelf) SyncRef() *SyncMeta       { return &s.SyncMeta }
func (q *Quote) SyncRef() *SyncMeta       { return &q.SyncMeta }
func (b *Bookmark) SyncRef() *SyncMeta    { return &b.SyncMeta }
func (n *Note) SyncRef() *SyncMeta        { return &n.SyncMeta }
func (u *User) SyncRef() *SyncMeta        { return &u.SyncMeta }
func (c *BookContent) SyncRef() *SyncMeta { return &c.SyncMeta }

func (b *Book) Key() uint        { return b.LocalID }
func (s *Shelf) Key() uint       { return s.LocalID }
func (q *Quote) Key() uint       { return q.LocalID }
func (b *Bookmark) Key() uint    { return b.LocalID }
func (n *Note) Key() uint        { return n.LocalID }
func (u *User) Key() uint        { return u.LocalID }
func (c *BookContent) Key() uint { return c.LocalID }
