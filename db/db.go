package db

import (
	"fmt"
	"os"
	"path/filepath"

	"voicescribe/config"
	"voicescribe/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Connect abre conexão com DB (sqlite3 por padrão) e faz automigrate básico.
// Para desabilitar automigrate, exporte AUTOMIGRATE=0.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(conf.DbPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating db dir: %w", mkErr)
		}
		db, err = gorm.Open("sqlite3", conf.DbPath)
	}

	if err != nil {
		return nil, fmt.Errorf("connecting %s: %w", database, err)
	}

	if getenv("AUTOMIGRATE", "1") == "1" {
		db.AutoMigrate(&models.User{})
	}

	return db, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
