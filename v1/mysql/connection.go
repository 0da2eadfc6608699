package mysql

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/persist/v1/observability"
)

// Logger defines the interface for logging operations within the mysql
// package.
//
//go:generate mockgen -source=connection.go -destination=mock_logger.go -package=mysql
type Logger interface {
	// Info logs an informational message with optional structured fields
	Info(msg string, err error, fields ...map[string]interface{})
	// Debug logs a debug message with optional structured fields
	Debug(msg string, err error, fields ...map[string]interface{})
	// Warn logs a warning message with optional structured fields
	Warn(msg string, err error, fields ...map[string]interface{})
	// Error logs an error message with optional structured fields
	Error(msg string, err error, fields ...map[string]interface{})
	// Fatal logs a fatal message with optional structured fields
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Connection wraps a single GORM connection pool to a MySQL deployment. It
// resolves its URI through a ConnectionResolver, translates the URI into
// driver settings and owns the pool lifecycle. One Connection is typically
// shared by several stores.
type Connection struct {
	cfg      Config
	resolver *ConnectionResolver
	logger   Logger

	mu           sync.RWMutex
	db           *gorm.DB
	databaseName string
}

// NewConnection creates a closed Connection from the given config. Call
// Open before handing it to stores, or let the FX module drive the
// lifecycle.
func NewConnection(cfg Config) *Connection {
	cfg = cfg.withDefaults()
	return &Connection{
		cfg:      cfg,
		resolver: NewConnectionResolver(cfg),
	}
}

// WithLogger sets the logger. Returns the connection for chaining.
func (c *Connection) WithLogger(logger Logger) *Connection {
	c.logger = logger
	return c
}

// WithDiscovery attaches a Discovery to the underlying resolver. Returns
// the connection for chaining.
func (c *Connection) WithDiscovery(discovery Discovery) *Connection {
	c.resolver.WithDiscovery(discovery)
	return c
}

// WithCredentialStore attaches a CredentialStore to the underlying
// resolver. Returns the connection for chaining.
func (c *Connection) WithCredentialStore(store CredentialStore) *Connection {
	c.resolver.WithCredentialStore(store)
	return c
}

// Open resolves the connection URI, dials the server and builds the pool.
// Opening an already open connection is a no-op. Resolution failures return
// configuration errors; dial and handshake failures return a connection
// error of kind CONNECT_FAILED.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	uri, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	uri = composeURISettings(uri, c.cfg.Options)

	settings, err := parseURI(uri)
	if err != nil {
		return NewConnectionError(ctx, KindConnectFailed, "connection to mysql failed", err)
	}

	c.logDebug(ctx, "connecting to mysql database", map[string]interface{}{
		"host":     settings.host,
		"database": settings.database,
	})

	db, err := gorm.Open(gormmysql.Open(settings.dsn()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return NewConnectionError(ctx, KindConnectFailed, "connection to mysql failed", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return NewConnectionError(ctx, KindConnectFailed, "connection to mysql failed", err)
	}
	sqlDB.SetMaxOpenConns(settings.poolSize)
	sqlDB.SetMaxIdleConns(settings.poolSize)
	sqlDB.SetConnMaxIdleTime(time.Duration(c.cfg.Options.IdleTimeout) * time.Millisecond)

	pingCtx, cancel := context.WithTimeout(ctx, settings.connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return NewConnectionError(ctx, KindConnectFailed, "connection to mysql failed", err)
	}

	c.db = db
	c.databaseName = settings.database
	c.logDebug(ctx, "connected to mysql database", map[string]interface{}{
		"database": settings.database,
	})
	return nil
}

// Close tears down the pool. Closing a connection that is not open is a
// no-op. Local state is cleared even when the teardown fails, so a failed
// Close does not wedge the component.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	database := c.databaseName
	c.db = nil
	c.databaseName = ""

	if err != nil {
		return NewConnectionError(ctx, KindDisconnectFailed, "disconnect from mysql failed", err)
	}
	if err := sqlDB.Close(); err != nil {
		return NewConnectionError(ctx, KindDisconnectFailed, "disconnect from mysql failed", err)
	}

	c.logDebug(ctx, "disconnected from mysql database", map[string]interface{}{
		"database": database,
	})
	return nil
}

// IsOpen reports whether the connection holds a live pool.
func (c *Connection) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db != nil
}

// DB returns the underlying GORM handle, or nil when the connection is not
// open.
func (c *Connection) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// DatabaseName returns the name of the connected database, or "" when the
// connection is not open.
func (c *Connection) DatabaseName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.databaseName
}

// Ping verifies the server is reachable through the pool.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if db == nil {
		return NewInvalidStateError(ctx, KindNotOpened, "mysql connection is not opened")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return NewConnectionError(ctx, KindConnectFailed, "mysql ping failed", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return NewConnectionError(ctx, KindConnectFailed, "mysql ping failed", err)
	}
	return nil
}

func (c *Connection) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger == nil {
		return
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if id := observability.CorrelationID(ctx); id != "" {
		fields["correlation_id"] = id
	}
	c.logger.Debug(msg, nil, fields)
}

// composeURISettings appends pool options to the resolved URI so that URIs
// supplied verbatim through configuration pick up the same driver settings
// as composed ones.
func composeURISettings(uri string, opts Options) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + fmt.Sprintf(
		"connectionLimit=%d&connectTimeout=%d&insecureAuth=true&multiStatements=true",
		opts.MaxPoolSize, opts.ConnectTimeout,
	)
}

// connectSettings are the discrete driver parameters parsed back out of a
// connection URI.
type connectSettings struct {
	user           string
	password       string
	host           string
	port           int
	database       string
	params         map[string]string
	poolSize       int
	connectTimeout time.Duration
}

// parseURI splits a mysql:// URI into discrete connect settings. Multi-host
// URIs are accepted; the driver dials the first host.
func parseURI(uri string) (connectSettings, error) {
	settings := connectSettings{
		port:           DefaultPort,
		params:         map[string]string{},
		poolSize:       DefaultMaxPoolSize,
		connectTimeout: DefaultConnectTimeout * time.Millisecond,
	}

	rest, ok := strings.CutPrefix(uri, "mysql://")
	if !ok {
		return settings, fmt.Errorf("invalid mysql uri %q: missing mysql:// scheme", uri)
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		for _, pair := range strings.Split(rest[i+1:], "&") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			settings.params[key] = value
		}
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '/'); i >= 0 {
		settings.database = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		settings.user, settings.password, _ = strings.Cut(rest[:i], ":")
		rest = rest[i+1:]
	}

	if rest == "" {
		return settings, fmt.Errorf("invalid mysql uri %q: missing host", uri)
	}

	host := rest
	if i := strings.IndexByte(rest, ','); i >= 0 {
		host = rest[:i]
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		port, err := strconv.Atoi(host[i+1:])
		if err != nil {
			return settings, fmt.Errorf("invalid mysql uri %q: bad port: %w", uri, err)
		}
		settings.port = port
		host = host[:i]
	}
	settings.host = host

	if raw, ok := settings.params["connectionLimit"]; ok {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			settings.poolSize = size
		}
	}
	if raw, ok := settings.params["connectTimeout"]; ok {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			settings.connectTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return settings, nil
}

// dsn renders the settings as a go-sql-driver DSN.
func (s connectSettings) dsn() string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		s.user, s.password, s.host, s.port, s.database)

	if s.connectTimeout > 0 {
		dsn += fmt.Sprintf("&timeout=%dms", s.connectTimeout.Milliseconds())
	}
	if s.params["multiStatements"] == "true" {
		dsn += "&multiStatements=true"
	}
	if s.params["insecureAuth"] == "true" {
		dsn += "&allowOldPasswords=true"
	}
	if ssl, ok := s.params["ssl"]; ok && ssl != "" {
		dsn += "&tls=" + ssl
	}
	return dsn
}
