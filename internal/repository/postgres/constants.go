package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	errSceneNotFound = "scene not found"
	errUserNotFound  = "user not found"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"

	errFailedCreateSceneFmt  = "failed to create scene: %w"
	errFailedGetSceneFmt     = "failed to get scene: %w"
	errFailedListScenesFmt   = "failed to list scenes: %w"
	errFailedScanSceneFmt    = "failed to scan scene: %w"
	errIterateScenesFmt      = "error iterating scenes: %w"
	errFailedUpdateSceneFmt  = "failed to update scene: %w"
	errFailedDeleteSceneFmt  = "failed to delete scene: %w"
	errFailedDeleteScenesFmt = "failed to delete scenes: %w"

	errFailedUpsertUserFmt = "failed to upsert user: %w"
	errFailedGetUserFmt    = "failed to get user: %w"
)

func errFailedParseDatabaseConfig(err error) error {
	return fmt.Errorf(errFailedParseDatabaseConfigFmt, err)
}

func errFailedCreateConnectionPool(err error) error {
	return fmt.Errorf(errFailedCreateConnectionPoolFmt, err)
}

func errFailedPingDatabase(err error) error {
	return fmt.Errorf(errFailedPingDatabaseFmt, err)
}

func errFailedCreateScene(err error) error { return fmt.Errorf(errFailedCreateSceneFmt, err) }
func errFailedGetScene(err error) error    { return fmt.Errorf(errFailedGetSceneFmt, err) }
func errFailedListScenes(err error) error  { return fmt.Errorf(errFailedListScenesFmt, err) }
func errFailedScanScene(err error) error   { return fmt.Errorf(errFailedScanSceneFmt, err) }
func errIterateScenes(err error) error     { return fmt.Errorf(errIterateScenesFmt, err) }
func errFailedUpdateScene(err error) error { return fmt.Errorf(errFailedUpdateSceneFmt, err) }
func errFailedDeleteScene(err error) error { return fmt.Errorf(errFailedDeleteSceneFmt, err) }
func errFailedDeleteScenes(err error) error {
	return fmt.Errorf(errFailedDeleteScenesFmt, err)
}

func errFailedUpsertUser(err error) error { return fmt.Errorf(errFailedUpsertUserFmt, err) }
func errFailedGetUser(err error) error    { return fmt.Errorf(errFailedGetUserFmt, err) }
