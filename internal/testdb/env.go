package testdb

import "os"

// Environment variables consulted for the test database URL, in order.
const (
	EnvDatabaseURL     = "DATABASE_URL"
	EnvShopTestDBURL   = "SHOP_TEST_DB_URL"
	EnvShopDatabaseURL = "SHOP_DATABASE_URL"
)

var databaseURLVars = []string{EnvDatabaseURL, EnvShopTestDBURL, EnvShopDatabaseURL}

// GetTestDatabaseURL returns the first non-empty database URL variable.
func GetTestDatabaseURL() string {
	for _, envVar := range databaseURLVars {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a database URL is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// ShouldSkipDatabaseTest reports whether database tests must be skipped.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}
