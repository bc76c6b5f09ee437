package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"jobstreet-applied/lib/configuration"
	"jobstreet-applied/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, no database is opened
	DbSchema string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService installs test telemetry and, when a schema is given, an in
// memory sqlite database with that schema applied.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanup
	}

	db, err := configuration.Database{File: ":memory:"}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection would get its own in memory database
	db.SetMaxOpenConns(1)
	_, err = db.Exec(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: db}, func() {
		db.Close()
		cleanup()
	}
}
