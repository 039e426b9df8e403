// Package driver selects the storage backend named by the configuration.
package driver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/repository"
	"github.com/mamadbah2/kitledger/internal/repository/file"
	"github.com/mamadbah2/kitledger/internal/repository/memory"
	"github.com/mamadbah2/kitledger/internal/repository/mongodb"
	"github.com/mamadbah2/kitledger/internal/repository/sheets"
	"github.com/mamadbah2/kitledger/internal/repository/sqlite"
)

// Open builds the repository.Backend for cfg.Storage.Driver:
//
//	file:    CSV files under STORAGE_FILE_ROOT
//	sheets:  worksheets of GOOGLE_SHEET_DATABASE_ID
//	mongodb: one document per table in MONGODB_DB_NAME
//	sqlite:  a single database at SQLITE_PATH
//	memory:  process memory, lost on exit
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.DriverFile:
		store, err := file.NewStore(cfg.Storage.FileRoot, logger.Named("repo.file"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSheets:
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
		if err != nil {
			return nil, err
		}
		return sheets.NewStore(repo, logger.Named("repo.sheets")), nil
	case config.DriverMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("repo.mongodb"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.Storage.SQLitePath, logger.Named("repo.sqlite"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
