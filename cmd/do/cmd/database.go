package cmd

import (
	"github.com/jmoiron/sqlx"

	"github.com/mtpultz/goal-digger/internal/config"
	"github.com/mtpultz/goal-digger/internal/db"
)

// openDB connects to the database named by DB_DRIVER and DB_CONNECTION.
func openDB() (*sqlx.DB, string, error) {
	driver, connection := config.LoadDatabase()
	database, err := db.Init(driver, connection)
	if err != nil {
		return nil, "", err
	}
	return database, driver, nil
}
