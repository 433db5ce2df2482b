package database

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

type MigrationConfig struct {
	MigrationFolderPath string
	Version             uint
	Force               int
	AutoRollback        bool
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	migrationFolder := ms.config.MigrationFolderPath
	if _, err := os.Stat(migrationFolder); err == nil {
		return migrationFolder
	}
	workingDirectory, _ := os.Getwd()
	separator := ""
	if workingDirectory != "/" {
		separator = "/"
	}
	return workingDirectory + separator + migrationFolder
}

// Migrate applies pending migrations from the configured folder.
func (ms *MigrationService) Migrate(databaseName string, databaseInstance database.Driver) error {
	migrationFolder := ms.resolveMigrationFolder()
	if _, err := os.Stat(migrationFolder); err != nil {
		return fmt.Errorf("migration folder %s does not exist: %w", migrationFolder, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationFolder, databaseName, databaseInstance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			ms.logger.WithError(err).Errorf("Failed to force database to version %d", ms.config.Force)
			return err
		}
	}

	previousVersion, _, versionErr := m.Version()
	if versionErr != nil {
		previousVersion = 0
	}

	var migrationErr error
	if ms.config.Version != 0 {
		migrationErr = m.Migrate(ms.config.Version)
	} else {
		migrationErr = m.Up()
	}

	return ms.handleMigrationError(m, migrationErr, previousVersion)
}

func (ms *MigrationService) handleMigrationError(m *migrate.Migrate, err error, previousVersion uint) error {
	if err == nil {
		ms.logger.Info("Successfully applied migrations")
		return nil
	}
	if err == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	ms.logger.WithError(err).Errorf("Migration failed with error: %v", err)

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
		return err
	}

	if ms.config.AutoRollback && dirty {
		if previousVersion == 0 && version > 0 {
			previousVersion = version - 1
		}
		ms.logger.Warnf("Database is dirty at version %d. Reverting to version %d", version, previousVersion)
		if forceErr := m.Force(int(previousVersion)); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to force database to version %d", previousVersion)
		}
	}

	return err
}
