package db

import "time"

type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	SlowThreshold   time.Duration
}

// IsPostgres reports whether the configured backend speaks the postgres protocol.
func (c Config) IsPostgres() bool {
	return c.Type == "" || c.Type == "postgres"
}
