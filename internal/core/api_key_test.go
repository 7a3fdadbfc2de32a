package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyServiceCreate(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	var storedHash string
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.Get(2).([]any)[3].(string)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*time.Time) = time.Now()
			return nil
		}})

	key, rawKey, err := svc.Create(context.Background(), "user-1", "laptop")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "dt_"))
	assert.Len(t, rawKey, 67)
	assert.Equal(t, rawKey[:11], key.KeyPrefix)
	assert.Equal(t, "laptop", key.Name)

	// Only the hash hits the database.
	sum := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(sum[:]), storedHash)
	assert.NotContains(t, storedHash, rawKey)
}

func TestAPIKeyServiceRevoke(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	db.On("Exec", mock.Anything, mock.Anything, []any{"key-1", "user-1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, svc.Revoke(context.Background(), "user-1", "key-1"))
}

func TestAPIKeyServiceRevokeAlreadyRevoked(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(context.Background(), "user-1", "key-1")
	assert.ErrorContains(t, err, "not found or already revoked")
}

func TestAPIKeyServiceList(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	keyScan := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*string) = id
			*dest[1].(*string) = "user-1"
			*dest[2].(*string) = "laptop"
			*dest[3].(*string) = "dt_0123abcd"
			*dest[4].(*time.Time) = time.Now()
			return nil
		}
	}
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRows{scans: []func(dest ...any) error{keyScan("k1"), keyScan("k2")}}, nil)

	keys, hasMore, err := svc.List(context.Background(), "user-1", 10, "")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.False(t, hasMore)
}
