package database

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/driftcars/autopilot/internal/model"
)

const migrateBatchSize = 500

// MigrateBackups copies every run in the SQLite files at paths into target,
// one transaction per file. A migrated file is renamed to <path>.migrated so
// it is not imported twice. The paths that were migrated are returned even
// when a later file fails.
func MigrateBackups(target *gorm.DB, paths []string, log zerolog.Logger) ([]string, error) {
	migrated := make([]string, 0, len(paths))

	for _, path := range paths {
		src, err := OpenSQLite(path)
		if err != nil {
			return migrated, fmt.Errorf("error opening backup %s: %w", path, err)
		}

		err = target.Transaction(func(tx *gorm.DB) error {
			runs, err := migrateTable[model.Run](src, tx, nil)
			if err != nil {
				return fmt.Errorf("error migrating runs: %w", err)
			}
			ticks, err := migrateTable(src, tx, func(t *model.TickRecord) { t.ID = 0 })
			if err != nil {
				return fmt.Errorf("error migrating tick_records: %w", err)
			}
			cmds, err := migrateTable(src, tx, func(c *model.CommandRecord) { c.ID = 0 })
			if err != nil {
				return fmt.Errorf("error migrating command_records: %w", err)
			}
			log.Info().Str("path", path).Int("runs", runs).Int("ticks", ticks).Int("commands", cmds).
				Msg("Migrated backup")
			return nil
		})

		if sqlDB, dbErr := src.DB(); dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				log.Error().Err(closeErr).Str("path", path).Msg("Error closing sqlite connection")
			}
		}
		if err != nil {
			return migrated, fmt.Errorf("error migrating backup %s: %w", path, err)
		}

		if err := os.Rename(path, path+".migrated"); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Error renaming sqlite file")
		}
		migrated = append(migrated, path)
	}

	return migrated, nil
}

// migrateTable copies all rows of M from src to dst in batches. reset, when
// set, is applied to each row before insert, typically to clear an
// autoincrement key.
func migrateTable[M any](src, dst *gorm.DB, reset func(*M)) (int, error) {
	if !src.Migrator().HasTable(new(M)) {
		return 0, nil
	}

	total := 0
	var batch []M
	res := src.Model(new(M)).FindInBatches(&batch, migrateBatchSize, func(_ *gorm.DB, _ int) error {
		if reset != nil {
			for i := range batch {
				reset(&batch[i])
			}
		}
		if err := dst.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&batch).Error; err != nil {
			return err
		}
		total += len(batch)
		return nil
	})
	return total, res.Error
}
