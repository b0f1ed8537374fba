package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/democracy365/internal/logging"
)

// fakeConnector hands out pre-built pools in order and counts opens.
type fakeConnector struct {
	pools []*sql.DB
	err   error
	opens int
}

func (f *fakeConnector) Open(ctx context.Context) (*sql.DB, error) {
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pools) == 0 {
		return nil, errors.New("no more pools")
	}
	db := f.pools[0]
	f.pools = f.pools[1:]
	return db, nil
}

func newPingDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestProvider_ReusesHealthyPool(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing()
	mock.ExpectPing()

	fc := &fakeConnector{pools: []*sql.DB{db}}
	p := NewProvider(fc, logging.Nop())

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	second, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Ping(context.Background()))

	assert.Same(t, first, second)
	assert.Equal(t, 1, fc.opens, "healthy pool must not be reopened")
	assert.NoError(t, mock.ExpectationsWereMet(), "cached Acquire must not ping")
}

func TestProvider_ReconnectsAfterFailedPing(t *testing.T) {
	stale, staleMock := newPingDB(t)
	staleMock.ExpectPing()
	staleMock.ExpectPing().WillReturnError(errors.New("connection reset"))
	staleMock.ExpectClose()

	fresh, freshMock := newPingDB(t)
	freshMock.ExpectPing()

	fc := &fakeConnector{pools: []*sql.DB{stale, fresh}}
	p := NewProvider(fc, logging.Nop())

	got, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, stale, got)

	err = p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, p.db, "failed pool must be dropped")

	got, err = p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, got)
	assert.Equal(t, 2, fc.opens)

	assert.NoError(t, staleMock.ExpectationsWereMet())
	assert.NoError(t, freshMock.ExpectationsWereMet())
}

func TestProvider_AcquireNotBlockedBySlowPing(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing()
	mock.ExpectPing().WillDelayFor(300 * time.Millisecond)

	p := NewProvider(&fakeConnector{pools: []*sql.DB{db}}, logging.Nop())
	_, err := p.Acquire(context.Background())
	require.NoError(t, err)

	pinged := make(chan error, 1)
	go func() { pinged <- p.Ping(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	got, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Acquire waited for an in-flight ping")

	require.NoError(t, <-pinged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_ConcurrentPingsRunInParallel(t *testing.T) {
	const callers = 4
	const delay = 200 * time.Millisecond

	db, mock := newPingDB(t)
	mock.ExpectPing()
	for i := 0; i < callers; i++ {
		mock.ExpectPing().WillDelayFor(delay)
	}

	fc := &fakeConnector{pools: []*sql.DB{db}}
	p := NewProvider(fc, logging.Nop())
	_, err := p.Acquire(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Acquire(context.Background()); err != nil {
				errs <- err
				return
			}
			errs <- p.Ping(context.Background())
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Less(t, elapsed, time.Duration(callers-1)*delay, "pings were serialized")
	assert.Equal(t, 1, fc.opens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_OpenError(t *testing.T) {
	fc := &fakeConnector{err: errors.New("dial tcp: refused")}
	p := NewProvider(fc, logging.Nop())

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestProvider_InitialPingError(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing().WillReturnError(errors.New("auth failed"))

	fc := &fakeConnector{pools: []*sql.DB{db}}
	p := NewProvider(fc, logging.Nop())

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
	assert.Nil(t, p.db, "failed pool must not be cached")
}

func TestProvider_CloseWithoutPool(t *testing.T) {
	p := NewProvider(&fakeConnector{}, logging.Nop())
	assert.NoError(t, p.Close())
}

func TestProvider_CloseDropsPool(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing()
	mock.ExpectClose()

	p := NewProvider(&fakeConnector{pools: []*sql.DB{db}}, logging.Nop())
	_, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Nil(t, p.db)
	assert.NoError(t, mock.ExpectationsWereMet())
}
