package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repostock/internal/domain"
)

func TestKeyedLocker_SerializaMismaClave(t *testing.T) {
	l := NewKeyedLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "lock:inventory-operation:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "nunca dos dueños simultáneos de la misma clave")
	assert.Equal(t, 0, l.size(), "las entradas se liberan al terminar")
}

func TestKeyedLocker_ClavesDistintasNoSeBloquean(t *testing.T) {
	l := NewKeyedLocker()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	defer r1()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	r2, err := l.Acquire(ctx2, "b")
	require.NoError(t, err)
	r2()
}

func TestKeyedLocker_ContextoCanceladoDevuelveBusy(t *testing.T) {
	l := NewKeyedLocker()
	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBusy))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestKeyedLocker_ReleaseIdempotente(t *testing.T) {
	l := NewKeyedLocker()
	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()
	release()
	assert.Equal(t, 0, l.size())
}
