package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/datumlabs/totpgate/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("load: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))

	assert.False(t, pg.IsCheckViolationError(fmt.Errorf("insert: %w", unique)))

	assert.True(t, pg.IsCheckViolationError(errors.Join(errors.New("x"), check)))
	assert.False(t, pg.IsCheckViolationError(errors.New("plain")))
}
