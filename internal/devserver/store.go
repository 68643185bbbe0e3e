package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-tui/internal/model"

	_ "modernc.org/sqlite"
)

var (
	errNoteNotFound = errors.New("note not found")
	errNoParent     = errors.New("note has no parent")
	errCycle        = errors.New("cannot attach a note under itself or its descendants")
	errNoAsset      = errors.New("asset not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS hierarchy (
	child_id       INTEGER PRIMARY KEY REFERENCES notes(id),
	parent_id      INTEGER NOT NULL REFERENCES notes(id),
	hierarchy_type TEXT NOT NULL DEFAULT 'block',
	position       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS hierarchy_parent ON hierarchy(parent_id, position);
CREATE TABLE IF NOT EXISTS assets (
	name         TEXT PRIMARY KEY,
	content_type TEXT NOT NULL,
	data         BLOB NOT NULL
);
`

type store struct {
	db  *sql.DB
	now func() time.Time
}

// openStore opens a private in-memory database. A single connection keeps every
// query on the same memory database.
func openStore() (*store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &store{db: db, now: time.Now}, nil
}

func (s *store) close() error { return s.db.Close() }

func (s *store) stamp() string { return s.now().UTC().Format(time.RFC3339Nano) }

func parseStamp(v string) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil
	}
	return &t
}

func (s *store) createNote(ctx context.Context, title, content string) (model.Note, error) {
	ts := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, created_at, modified_at) VALUES (?, ?, ?, ?)`,
		title, content, ts, ts)
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return s.getNote(ctx, id)
}

func (s *store) getNote(ctx context.Context, id int64) (model.Note, error) {
	var n model.Note
	var created, modified string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, modified_at FROM notes WHERE id = ?`, id).
		Scan(&n.ID, &n.Title, &n.Content, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, errNoteNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("get note %d: %w", id, err)
	}
	n.CreatedAt = parseStamp(created)
	n.ModifiedAt = parseStamp(modified)
	return n, nil
}

func (s *store) listNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at, modified_at FROM notes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		var created, modified string
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &created, &modified); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.CreatedAt = parseStamp(created)
		n.ModifiedAt = parseStamp(modified)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *store) updateNote(ctx context.Context, id int64, upd model.NoteUpdate) (model.Note, error) {
	cur, err := s.getNote(ctx, id)
	if err != nil {
		return model.Note{}, err
	}
	if upd.Title != nil {
		cur.Title = *upd.Title
	}
	if upd.Content != nil {
		cur.Content = *upd.Content
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, modified_at = ? WHERE id = ?`,
		cur.Title, cur.Content, s.stamp(), id); err != nil {
		return model.Note{}, fmt.Errorf("update note %d: %w", id, err)
	}
	return s.getNote(ctx, id)
}

// deleteNote removes the note and its hierarchy edges. Its children become root-level.
func (s *store) deleteNote(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoteNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hierarchy WHERE child_id = ? OR parent_id = ?`, id, id); err != nil {
		return fmt.Errorf("delete edges of %d: %w", id, err)
	}
	return tx.Commit()
}

func (s *store) parentOf(ctx context.Context, tx *sql.Tx, id int64) (int64, bool, error) {
	var parent int64
	err := tx.QueryRowContext(ctx, `SELECT parent_id FROM hierarchy WHERE child_id = ?`, id).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return parent, true, nil
}

func (s *store) exists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// attach makes child the last child of parent, replacing any existing parent edge.
func (s *store) attach(ctx context.Context, child, parent int64, kind string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range []int64{child, parent} {
		ok, err := s.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNoteNotFound
		}
	}

	// Walk up from the new parent; reaching child means the edge would close a cycle.
	for cur := parent; ; {
		if cur == child {
			return errCycle
		}
		next, ok, err := s.parentOf(ctx, tx, cur)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		cur = next
	}

	var pos int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM hierarchy WHERE parent_id = ?`, parent).Scan(&pos); err != nil {
		return err
	}
	if strings.TrimSpace(kind) == "" {
		kind = model.HierarchyBlock
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hierarchy (child_id, parent_id, hierarchy_type, position) VALUES (?, ?, ?, ?)
		 ON CONFLICT(child_id) DO UPDATE SET parent_id = excluded.parent_id,
		   hierarchy_type = excluded.hierarchy_type, position = excluded.position`,
		child, parent, kind, pos); err != nil {
		return fmt.Errorf("attach %d to %d: %w", child, parent, err)
	}
	return tx.Commit()
}

func (s *store) detach(ctx context.Context, child int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hierarchy WHERE child_id = ?`, child)
	if err != nil {
		return fmt.Errorf("detach %d: %w", child, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoParent
	}
	return nil
}

func (s *store) relations(ctx context.Context) ([]model.HierarchyRelation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT parent_id, child_id FROM hierarchy ORDER BY parent_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HierarchyRelation{}
	for rows.Next() {
		var r model.HierarchyRelation
		if err := rows.Scan(&r.ParentID, &r.ChildID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type edge struct {
	child int64
	kind  string
}

// tree assembles the hierarchy: roots by id, children by attach position.
func (s *store) tree(ctx context.Context) ([]model.TreeNote, error) {
	notes, err := s.listNotes(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT parent_id, child_id, hierarchy_type FROM hierarchy ORDER BY parent_id, position`)
	if err != nil {
		return nil, err
	}
	children := map[int64][]edge{}
	hasParent := map[int64]bool{}
	for rows.Next() {
		var parent int64
		var e edge
		if err := rows.Scan(&parent, &e.child, &e.kind); err != nil {
			rows.Close()
			return nil, err
		}
		children[parent] = append(children[parent], e)
		hasParent[e.child] = true
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	byID := make(map[int64]model.Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	var build func(n model.Note, kind string) model.TreeNote
	build = func(n model.Note, kind string) model.TreeNote {
		content := n.Content
		tn := model.TreeNote{
			ID:            n.ID,
			Title:         n.Title,
			Content:       &content,
			CreatedAt:     n.CreatedAt,
			ModifiedAt:    n.ModifiedAt,
			HierarchyType: kind,
			Children:      []model.TreeNote{},
		}
		for _, e := range children[n.ID] {
			if c, ok := byID[e.child]; ok {
				tn.Children = append(tn.Children, build(c, e.kind))
			}
		}
		return tn
	}

	out := []model.TreeNote{}
	for _, n := range notes {
		if !hasParent[n.ID] {
			out = append(out, build(n, ""))
		}
	}
	return out, nil
}

// search ranks title matches above content matches, then by id.
func (s *store) search(ctx context.Context, q string) ([]model.Note, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Note{}, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM notes
		WHERE lower(title) LIKE ? OR lower(content) LIKE ?
		ORDER BY (lower(title) LIKE ?) DESC, id`, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	out := make([]model.Note, 0, len(ids))
	for _, id := range ids {
		n, err := s.getNote(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *store) putAsset(ctx context.Context, name, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (name, content_type, data) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content_type = excluded.content_type, data = excluded.data`,
		name, contentType, data)
	return err
}

func (s *store) asset(ctx context.Context, name string) (string, []byte, error) {
	var ct string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT content_type, data FROM assets WHERE name = ?`, name).Scan(&ct, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, errNoAsset
	}
	return ct, data, err
}
