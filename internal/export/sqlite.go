package export

import (
	"context"

	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/jobstore"
	"jobstreet-applied/lib/jobstore/db"
)

func (e Exporter) writeSQLite(ctx context.Context, result records.Result) (string, error) {
	database := e.database
	if database.File == "" && !database.Remote() {
		path, err := e.path("db")
		if err != nil {
			return "", err
		}
		database.File = path
	}

	conn, err := database.OpenDB()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, db.Schema)
	if err != nil {
		return "", err
	}

	runID := e.runID
	if runID == "" {
		runID = e.clock.Now().Format(timestampLayout)
	}
	err = jobstore.NewStore(conn).Push(ctx, jobstore.PushRequest{
		RunID:  runID,
		Result: result,
	})
	if err != nil {
		return "", err
	}

	if database.Remote() {
		return database.Url, nil
	}
	return database.File, nil
}
