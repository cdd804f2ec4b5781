package cachebackend

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/readiness"
)

func TestRedis_Put_Get_RoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	backend := NewRedis(db, "shadow:test:", zerolog.Nop())

	want := readiness.Result{Status: readiness.Ready, Reason: "OK"}
	payload := `{"status":"READY","reason":"OK"}`

	mock.ExpectSet("shadow:test:tok1", []byte(payload), 1800*time.Second).SetVal("OK")
	backend.Put("tok1", want, 1800*time.Second)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectGet("shadow:test:tok1").SetVal(payload)
	got, ok := backend.Get("tok1")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestRedis_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	backend := NewRedis(db, "shadow:test:", zerolog.Nop())

	mock.ExpectGet("shadow:test:missing").RedisNil()
	_, ok := backend.Get("missing")
	require.False(t, ok)
}
