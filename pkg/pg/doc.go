// Package pg connects to PostgreSQL through pgxpool, applies goose
// migrations and classifies common driver errors.
package pg
