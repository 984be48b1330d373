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

	errUserNotFound    = "user not found"
	errSessionNotFound = "session not found"
	errRecordNotFound  = "record not found"
	errRecordConflict  = "record already exists"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"

	errFailedCreateUserFmt = "failed to create user: %w"
	errFailedGetUserFmt    = "failed to get user: %w"

	errFailedCreateSessionFmt = "failed to create session: %w"
	errFailedGetSessionFmt    = "failed to get session: %w"
	errFailedTouchSessionFmt  = "failed to refresh session: %w"
	errFailedDeleteSessionFmt = "failed to delete session: %w"

	errFailedListPermissionsFmt = "failed to list group permissions: %w"
	errFailedScanPermissionsFmt = "failed to scan group permissions: %w"
	errIteratePermissionsFmt    = "error iterating group permissions: %w"

	errUnknownCollectionFmt = "unknown collection: %s"
	errBadColumnFmt         = "invalid column name: %s"
	errEmptyPatch           = "patch contains no columns"
	errBadFilterFmt         = "unsupported filter node: %d"
	errFailedGetRecordFmt   = "failed to get record: %w"
	errFailedListRecordsFmt = "failed to list records: %w"
	errFailedScanRecordFmt  = "failed to scan record: %w"
	errFailedInsertFmt      = "failed to insert record: %w"
	errFailedUpdateFmt      = "failed to update record: %w"
	errFailedDeleteFmt      = "failed to delete record: %w"
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
