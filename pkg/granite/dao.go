// Copyright Contributors to the Open Cluster Management project

// Package granite reads circuit design data from the Granite views and stores reconciliation reports.
package granite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/driftprogramming/pgxpoolmock"
	pgxpool "github.com/jackc/pgx/v4/pgxpool"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"k8s.io/klog/v2"
)

// Database Access Object. Use a DAO instance so we can replace the pool object in the unit tests.
type DAO struct {
	pool          pgxpoolmock.PgxPool
	batchSize     int
	DBInitialized bool
}

var dialect = goqu.Dialect("postgres")

var errNoConnection = errors.New("no database connection")

// NewDAO creates a DAO using the given pool, or a connection built from config when pool is nil.
func NewDAO(p pgxpoolmock.PgxPool) DAO {
	dao := DAO{batchSize: 100}
	if p != nil {
		dao.pool = p
		return dao
	}
	if pool := getConnection(context.Background()); pool != nil {
		dao.pool = pool
	}
	return dao
}

func getConnection(ctx context.Context) *pgxpool.Pool {
	cfg := config.Cfg
	databaseURL := fmt.Sprintf("postgresql://%s:%s@%s:%d/%s", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	klog.Info("Connecting to PostgreSQL at: ",
		fmt.Sprintf("postgresql://%s:%s@%s:%d/%s", cfg.DBUser, "*****", cfg.DBHost, cfg.DBPort, cfg.DBName))

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		klog.Error("Error parsing database connection configuration. ", err)
		return nil
	}
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnIdleTime = time.Duration(cfg.DBMaxConnIdleTime) * time.Millisecond
	poolConfig.MaxConnLifetime = time.Duration(cfg.DBMaxConnLifeTime) * time.Millisecond
	poolConfig.MaxConnLifetimeJitter = time.Duration(cfg.DBMaxConnLifeJitter) * time.Millisecond

	conn, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		klog.Errorf("Unable to connect to database: %+v", err)
		return nil
	}
	if err := conn.Ping(ctx); err != nil {
		klog.Error("Unable to get a database connection. ", err)
		conn.Close()
		return nil
	}
	klog.Info("Successfully connected to database!")
	return conn
}

// InitializeTables creates the reports schema and table when missing.
func (dao *DAO) InitializeTables(ctx context.Context) error {
	if dao.pool == nil {
		return errNoConnection
	}
	statements := []string{
		"CREATE SCHEMA IF NOT EXISTS reconciler",
		"CREATE TABLE IF NOT EXISTS reconciler.reports (id TEXT PRIMARY KEY, cid TEXT, kind TEXT, data JSONB, created TIMESTAMPTZ DEFAULT now())",
		"CREATE INDEX IF NOT EXISTS reports_cid_idx ON reconciler.reports (cid)",
	}
	for _, stmt := range statements {
		if _, err := dao.pool.Exec(ctx, stmt); err != nil {
			klog.Errorf("Error initializing table with [%s]: %v", stmt, err)
			return err
		}
	}
	dao.DBInitialized = true
	return nil
}
