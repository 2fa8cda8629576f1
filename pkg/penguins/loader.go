package penguins

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/penguinserve/pkg/cache"
)

// DefaultTTL - время жизни загруженной таблицы в кеше
const DefaultTTL = 300 * time.Second

// DefaultDatabase - база по умолчанию, если DEMO_DATABASE не задан
const DefaultDatabase = "DEMO_DB"

// TableName возвращает полное имя таблицы: <database>.PUBLIC.PENGUINS
func TableName(database string) string {
	if database == "" {
		database = DefaultDatabase
	}
	return database + ".PUBLIC.PENGUINS"
}

// Connector возвращает подключение к хранилищу.
// Реализуется warehouse.Provider; в тестах - любой *sql.DB.
type Connector interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// ConnectorFunc адаптирует функцию к Connector
type ConnectorFunc func(ctx context.Context) (*sql.DB, error)

func (f ConnectorFunc) DB(ctx context.Context) (*sql.DB, error) {
	return f(ctx)
}

// ConnectError - не удалось получить подключение к хранилищу.
// Текст ошибки не меняется, тип нужен только для определения стадии отказа.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }

// Loader - Data Loader: один фиксированный SELECT * по таблице PENGUINS,
// результат кешируется на TTL
type Loader struct {
	conn   Connector
	store  *cache.Store
	mirror cache.Mirror // nil = только процессный кеш
	table  string
	ttl    time.Duration
	now    func() time.Time
}

// LoaderOption - опция конструктора Loader
type LoaderOption func(*Loader)

// WithMirror включает разделяемый Redis-уровень кеша
func WithMirror(m cache.Mirror) LoaderOption {
	return func(l *Loader) {
		l.mirror = m
	}
}

// WithTTL переопределяет время жизни таблицы в кеше
func WithTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.ttl = ttl
	}
}

// WithTable переопределяет имя таблицы (по умолчанию TableName(DefaultDatabase))
func WithTable(name string) LoaderOption {
	return func(l *Loader) {
		l.table = name
	}
}

// WithClock подменяет источник времени для LoadedAt и остатка TTL снапшота
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader создает загрузчик
func NewLoader(conn Connector, store *cache.Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		conn:  conn,
		store: store,
		table: TableName(DefaultDatabase),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Table возвращает имя загружаемой таблицы
func (l *Loader) Table() string {
	return l.table
}

// Query возвращает SQL, который выполняет Load
func (l *Loader) Query() string {
	return "SELECT * FROM " + l.table
}

// CacheKey - ключ таблицы в кеше
func (l *Loader) CacheKey() string {
	return "penguins:" + l.table
}

// Load возвращает Observation Table из кеша или из хранилища
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	return cache.GetOrComputeTTL(ctx, l.store, l.CacheKey(), l.fetch)
}

// Invalidate сбрасывает кешированную таблицу (и снапшот в mirror)
func (l *Loader) Invalidate(ctx context.Context) error {
	l.store.Invalidate(l.CacheKey())
	if l.mirror != nil {
		return l.mirror.Drop(ctx, l.CacheKey())
	}
	return nil
}

// fetch - промах процессного кеша: mirror, затем хранилище.
// Снапшот из mirror кешируется только на остаток TTL от его LoadedAt.
func (l *Loader) fetch(ctx context.Context) (*Table, time.Duration, error) {
	if l.mirror != nil {
		if t, ok := l.fromMirror(ctx); ok {
			if left, fresh := l.remaining(t); fresh {
				return t, left, nil
			}
			log.Debug().Str("table", l.table).Time("loaded_at", t.LoadedAt).Msg("mirror snapshot expired, querying warehouse")
		}
	}

	t, err := l.query(ctx)
	if err != nil {
		return nil, 0, err
	}

	if l.mirror != nil {
		l.toMirror(ctx, t)
	}
	return t, l.ttl, nil
}

// remaining - сколько снапшоту осталось жить; ttl <= 0 - бессрочно
func (l *Loader) remaining(t *Table) (time.Duration, bool) {
	if l.ttl <= 0 {
		return l.ttl, true
	}
	left := l.ttl - l.now().Sub(t.LoadedAt)
	return left, left > 0
}

// fromMirror читает снапшот; любые ошибки mirror - деградация, не отказ
func (l *Loader) fromMirror(ctx context.Context) (*Table, bool) {
	data, ok, err := l.mirror.Fetch(ctx, l.CacheKey())
	if err != nil {
		log.Warn().Err(err).Str("table", l.table).Msg("mirror fetch failed, querying warehouse")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	raw, err := cache.DecodeSnapshot(data)
	if err != nil {
		log.Warn().Err(err).Str("table", l.table).Msg("mirror snapshot corrupt, querying warehouse")
		return nil, false
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Warn().Err(err).Str("table", l.table).Msg("mirror snapshot unreadable, querying warehouse")
		return nil, false
	}
	log.Debug().Str("table", l.table).Int("rows", t.Len()).Msg("table restored from mirror")
	return &t, true
}

func (l *Loader) toMirror(ctx context.Context, t *Table) {
	raw, err := json.Marshal(t)
	if err != nil {
		log.Warn().Err(err).Msg("table snapshot marshal failed")
		return
	}
	data, err := cache.EncodeSnapshot(raw)
	if err != nil {
		log.Warn().Err(err).Msg("table snapshot compression failed")
		return
	}
	if err := l.mirror.Save(ctx, l.CacheKey(), data, l.ttl); err != nil {
		log.Warn().Err(err).Str("table", l.table).Msg("mirror save failed")
	}
}

// query выполняет SELECT * и материализует все строки
func (l *Loader) query(ctx context.Context) (*Table, error) {
	db, err := l.conn.DB(ctx)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}

	start := l.now()
	warehouseQueries.WithLabelValues(l.table).Inc()

	rows, err := db.QueryContext(ctx, l.Query())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.table, err)
	}
	defer rows.Close()

	t, err := scanTable(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.table, err)
	}
	t.LoadedAt = l.now()

	elapsed := t.LoadedAt.Sub(start)
	queryDuration.WithLabelValues(l.table).Observe(elapsed.Seconds())
	rowsLoaded.WithLabelValues(l.table).Set(float64(t.Len()))

	log.Info().
		Str("table", l.table).
		Int("rows", t.Len()).
		Int("fields", len(t.Fields)).
		Dur("elapsed", elapsed).
		Msg("table loaded from warehouse")

	return t, nil
}

// scanTable читает *sql.Rows в Table. Колонки сохраняются в исходном порядке.
func scanTable(rows *sql.Rows) (*Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	fields := make([]Field, len(types))
	for i, ct := range types {
		fields[i] = Field{
			Name: strings.ToUpper(ct.Name()),
			Kind: kindOf(ct.DatabaseTypeName()),
		}
	}

	t := &Table{Fields: fields}
	dest := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(t.Rows)+1, err)
		}
		row := make(Row, len(fields))
		for i, raw := range dest {
			v, err := toValue(raw, fields[i].Kind)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", len(t.Rows)+1, fields[i].Name, err)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// kindOf определяет тип колонки по имени типа СУБД.
// Snowflake: FIXED/REAL/TEXT; SQLite: INTEGER/REAL/TEXT.
func kindOf(dbType string) FieldKind {
	switch strings.ToUpper(dbType) {
	case "FIXED", "REAL", "NUMBER", "NUMERIC", "DECIMAL", "FLOAT", "DOUBLE",
		"INTEGER", "INT", "BIGINT", "SMALLINT":
		return KindNumber
	default:
		return KindText
	}
}

// toValue конвертирует значение драйвера в Value
func toValue(raw any, kind FieldKind) (Value, error) {
	if raw == nil {
		return Null, nil
	}

	switch v := raw.(type) {
	case int64:
		if kind == KindText {
			return Text(strconv.FormatInt(v, 10)), nil
		}
		return Number(float64(v)), nil
	case float64:
		if kind == KindText {
			return Text(strconv.FormatFloat(v, 'f', -1, 64)), nil
		}
		return Number(v), nil
	case []byte:
		return parseString(string(v), kind)
	case string:
		return parseString(v, kind)
	case bool:
		return Text(strconv.FormatBool(v)), nil
	case time.Time:
		return Text(v.Format(time.RFC3339)), nil
	default:
		return Text(fmt.Sprint(v)), nil
	}
}

func parseString(s string, kind FieldKind) (Value, error) {
	if kind != KindNumber {
		return Text(s), nil
	}
	// gosnowflake отдает NUMBER как строку при сканировании в any
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Null, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Number(f), nil
}
