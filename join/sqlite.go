package join

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteProvider spills child-side join rows to a temporary SQLite
// database instead of holding them in memory. Use it when joins
// buffer more rows than fit comfortably in RAM. Parent-side stores
// remain in memory; the parent side carries only subjects and keys.
type SQLiteProvider struct {
	dir string

	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLiteProvider returns a provider writing its database under
// dir. An empty dir uses the system temporary directory.
func NewSQLiteProvider(dir string) *SQLiteProvider {
	return &SQLiteProvider{dir: dir}
}

var storeNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// ChildSideStore implements ChildSideStoreProvider. Each store gets
// its own table in a shared database file.
func (p *SQLiteProvider) ChildSideStore(name string) (ChildSideStore, error) {
	db, err := p.database()
	if err != nil {
		return nil, &StoreError{Store: name, Op: "open", Err: err}
	}

	table := "rows_" + storeNameSanitizer.ReplaceAllString(name, "_")
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (seq INTEGER PRIMARY KEY AUTOINCREMENT, row BLOB NOT NULL)`, table)
	if _, err := db.Exec(ddl); err != nil {
		return nil, &StoreError{Store: name, Op: "create table", Err: err}
	}

	return &sqliteChildStore{name: name, table: table, db: db}, nil
}

// Close removes the spill database. Call it after the mapping run
// releases all stores.
func (p *SQLiteProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if p.path != "" {
		if rmErr := os.Remove(p.path); err == nil {
			err = rmErr
		}
		p.path = ""
	}
	return err
}

func (p *SQLiteProvider) database() (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db, nil
	}

	dir := p.dir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "rmlstream-join-*.db")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Spill data is disposable; trade durability for write speed.
	if _, err := db.Exec(`PRAGMA synchronous = OFF; PRAGMA journal_mode = MEMORY`); err != nil {
		db.Close()
		return nil, err
	}
	p.db = db
	p.path = path
	return db, nil
}

type sqliteChildStore struct {
	name  string
	table string
	db    *sql.DB
}

func (s *sqliteChildStore) Append(rows ...ChildSideJoin) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Store: s.name, Op: "begin", Err: err}
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (row) VALUES (?)`, s.table))
	if err != nil {
		tx.Rollback()
		return &StoreError{Store: s.name, Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for _, row := range rows {
		data, err := encodeRow(row)
		if err != nil {
			tx.Rollback()
			return &StoreError{Store: s.name, Op: "encode", Err: err}
		}
		if _, err := stmt.Exec(data); err != nil {
			tx.Rollback()
			return &StoreError{Store: s.name, Op: "insert", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Store: s.name, Op: "commit", Err: err}
	}
	return nil
}

func (s *sqliteChildStore) ForEach(fn func(ChildSideJoin) error) error {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT row FROM %q ORDER BY seq`, s.table))
	if err != nil {
		return &StoreError{Store: s.name, Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return &StoreError{Store: s.name, Op: "scan", Err: err}
		}
		row, err := decodeRow(data)
		if err != nil {
			return &StoreError{Store: s.name, Op: "decode", Err: err}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &StoreError{Store: s.name, Op: "iterate", Err: err}
	}
	return nil
}

func (s *sqliteChildStore) Clear() error {
	if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, s.table)); err != nil {
		return &StoreError{Store: s.name, Op: "drop", Err: err}
	}
	return nil
}
