// Package database provides PostgreSQL connection pool management for the
// pair store.
package database
