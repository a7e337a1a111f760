package datastore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Store configuration constants.
const (
	// dirPermissions is the permission mode for the store directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the store file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout bounds connection verification and schema setup.
	connectionTimeout = 5 * time.Second

	// float64Size is the byte width of one dataset element.
	float64Size = 8
)

//go:embed schema.sql
var schemaSQL string

// Config contains store configuration options. These map to the data
// section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite store file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging so readers are not blocked
	// while an acquisition is writing.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock
	// (seconds).
	BusyTimeout int
}

// Store persists experiment results as a hierarchy of named groups, each
// holding float64 datasets and scalar attributes, in a single SQLite file.
// It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the store at cfg.Path.
//
// It creates the parent directory, applies the busy-timeout and
// foreign-key pragmas, bootstraps the schema, verifies the connection and
// restricts file permissions to the owner.
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// SQLite supports a single writer; one connection avoids lock churn
	// between the append path and read-backs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verifying store connection: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying store schema: %w", err)
	}

	// Owner read/write only. Measurement files routinely carry
	// device addresses and credentials in attributes.
	_ = os.Chmod(cfg.Path, filePermissions)

	return &Store{db: db, path: cfg.Path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the store file.
func (s *Store) Path() string {
	return s.path
}

// HealthCheck verifies the store is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// AppendGroup creates or opens the group at parent/name and writes the
// given datasets and attributes into it, all within one transaction.
//
// Both name and parent may be "/"-separated paths; missing intermediate
// groups are created. An empty parent targets the store root. Dataset
// names must be new within the group (ErrDatasetExists otherwise);
// attributes overwrite silently. Datasets and attributes are written in
// lexical name order.
func (s *Store) AppendGroup(ctx context.Context, name, parent string, datasets map[string][]float64, attrs map[string]any) error {
	segments := append(splitPath(parent), splitPath(name)...)
	if len(segments) == 0 {
		return errors.New("datastore: empty group path")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	parentID := sql.NullInt64{}
	var id int64
	for _, segment := range segments {
		id, err = ensureGroup(ctx, tx, parentID, segment)
		if err != nil {
			return err
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}
	}

	for _, dn := range sortedKeys(datasets) {
		if err := insertDataset(ctx, tx, id, dn, datasets[dn]); err != nil {
			return err
		}
	}
	for _, an := range sortedKeys(attrs) {
		if err := upsertAttr(ctx, tx, id, an, attrs[an]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group %q: %w", name, err)
	}
	return nil
}

// Groups returns the names of the child groups of path, sorted. An empty
// path lists the root groups.
func (s *Store) Groups(ctx context.Context, path string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(splitPath(path)) == 0 {
		rows, err = s.db.QueryContext(ctx,
			"SELECT name FROM groups WHERE parent_id IS NULL ORDER BY name")
	} else {
		var id int64
		id, err = s.lookupGroup(ctx, path)
		if err != nil {
			return nil, err
		}
		rows, err = s.db.QueryContext(ctx,
			"SELECT name FROM groups WHERE parent_id = ? ORDER BY name", id)
	}
	if err != nil {
		return nil, fmt.Errorf("listing groups under %q: %w", path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing groups under %q: %w", path, err)
	}
	return names, nil
}

// Datasets reads back every dataset of the group at path.
func (s *Store) Datasets(ctx context.Context, path string) (map[string][]float64, error) {
	id, err := s.lookupGroup(ctx, path)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, count, payload FROM datasets WHERE group_id = ? ORDER BY name", id)
	if err != nil {
		return nil, fmt.Errorf("reading datasets of %q: %w", path, err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var (
			name    string
			count   int
			payload []byte
		)
		if err := rows.Scan(&name, &count, &payload); err != nil {
			return nil, fmt.Errorf("scanning dataset row: %w", err)
		}
		values, err := decodeFloats(payload, count)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		out[name] = values
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading datasets of %q: %w", path, err)
	}
	return out, nil
}

// Attrs reads back every attribute of the group at path. Integer
// attributes come back as int64 and float32 widens to float64; otherwise
// values round-trip as written.
func (s *Store) Attrs(ctx context.Context, path string) (map[string]any, error) {
	id, err := s.lookupGroup(ctx, path)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, kind, value FROM attrs WHERE group_id = ? ORDER BY name", id)
	if err != nil {
		return nil, fmt.Errorf("reading attributes of %q: %w", path, err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var name, kind, value string
		if err := rows.Scan(&name, &kind, &value); err != nil {
			return nil, fmt.Errorf("scanning attribute row: %w", err)
		}
		decoded, err := decodeAttr(kind, value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = decoded
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading attributes of %q: %w", path, err)
	}
	return out, nil
}

// lookupGroup resolves a "/"-separated path to a group id without creating
// anything.
func (s *Store) lookupGroup(ctx context.Context, path string) (int64, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return 0, fmt.Errorf("%w: empty path", ErrGroupNotFound)
	}

	parent := sql.NullInt64{}
	var id int64
	for _, segment := range segments {
		var err error
		id, err = findGroup(ctx, s.db, parent, segment)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %q", ErrGroupNotFound, path)
		}
		if err != nil {
			return 0, fmt.Errorf("looking up group %q: %w", path, err)
		}
		parent = sql.NullInt64{Int64: id, Valid: true}
	}
	return id, nil
}

// querier is the subset of sql.DB and sql.Tx used for group lookups.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findGroup(ctx context.Context, q querier, parent sql.NullInt64, name string) (int64, error) {
	var (
		id  int64
		err error
	)
	if parent.Valid {
		err = q.QueryRowContext(ctx,
			"SELECT id FROM groups WHERE parent_id = ? AND name = ?",
			parent.Int64, name).Scan(&id)
	} else {
		err = q.QueryRowContext(ctx,
			"SELECT id FROM groups WHERE parent_id IS NULL AND name = ?",
			name).Scan(&id)
	}
	return id, err
}

func ensureGroup(ctx context.Context, tx *sql.Tx, parent sql.NullInt64, name string) (int64, error) {
	id, err := findGroup(ctx, tx, parent, name)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to create
	default:
		return 0, fmt.Errorf("looking up group %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO groups (parent_id, name, created_at) VALUES (?, ?, ?)",
		parent, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("creating group %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating group %q: %w", name, err)
	}
	return id, nil
}

func insertDataset(ctx context.Context, tx *sql.Tx, groupID int64, name string, values []float64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO datasets (group_id, name, count, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		groupID, name, len(values), encodeFloats(values),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %q", ErrDatasetExists, name)
		}
		return fmt.Errorf("writing dataset %q: %w", name, err)
	}
	return nil
}

func upsertAttr(ctx context.Context, tx *sql.Tx, groupID int64, name string, value any) error {
	kind, text := encodeAttr(value)
	_, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO attrs (group_id, name, kind, value) VALUES (?, ?, ?, ?)",
		groupID, name, kind, text)
	if err != nil {
		return fmt.Errorf("writing attribute %q: %w", name, err)
	}
	return nil
}

// encodeFloats packs values as little-endian IEEE-754 float64, the same
// layout instruments ship in binary blocks.
func encodeFloats(values []float64) []byte {
	buf := make([]byte, float64Size*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[float64Size*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(payload []byte, count int) ([]float64, error) {
	if len(payload) != float64Size*count {
		return nil, fmt.Errorf("%w: %d bytes for %d elements",
			ErrCorruptDataset, len(payload), count)
	}
	values := make([]float64, count)
	for i := range values {
		values[i] = math.Float64frombits(
			binary.LittleEndian.Uint64(payload[float64Size*i:]))
	}
	return values, nil
}

func encodeAttr(value any) (kind, text string) {
	switch v := value.(type) {
	case string:
		return "string", v
	case bool:
		return "bool", strconv.FormatBool(v)
	case int:
		return "int", strconv.FormatInt(int64(v), 10)
	case int64:
		return "int", strconv.FormatInt(v, 10)
	case float32:
		return "float", strconv.FormatFloat(float64(v), 'g', -1, 64)
	case float64:
		return "float", strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return "time", v.UTC().Format(time.RFC3339)
	default:
		return "string", fmt.Sprint(v)
	}
}

func decodeAttr(kind, text string) (any, error) {
	switch kind {
	case "string":
		return text, nil
	case "bool":
		return strconv.ParseBool(text)
	case "int":
		return strconv.ParseInt(text, 10, 64)
	case "float":
		return strconv.ParseFloat(text, 64)
	case "time":
		return time.Parse(time.RFC3339, text)
	default:
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
}

func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
