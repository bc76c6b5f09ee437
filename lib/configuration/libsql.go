package configuration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Database points at either a local sqlite file or a remote libsql server.
type Database struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Database) Remote() bool {
	return config.Url != ""
}

// OpenDB opens the local file with the pure go sqlite driver, or the remote
// database through the libsql client when a url is set.
func (config Database) OpenDB() (*sql.DB, error) {
	if !config.Remote() {
		if config.File == "" {
			return nil, fmt.Errorf("neither a database file nor url was specified")
		}
		if config.File == ":memory:" {
			return sql.Open("sqlite", config.File)
		}
		err := os.MkdirAll(filepath.Dir(config.File), 0755)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers, a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	dsn := config.Url
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	return sql.Open("libsql", dsn)
}
