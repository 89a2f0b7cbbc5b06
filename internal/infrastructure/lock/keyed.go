// Package lock implementa el candado por operación (inventory.Locker): Redis entre réplicas
// o un mutex por clave dentro del proceso.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
)

var _ inventory.Locker = (*KeyedLocker)(nil)

// KeyedLocker un mutex por clave, creado bajo demanda. Sirve con una sola réplica del servicio.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{} // buffer 1: lleno = tomado
	refs int
}

// NewKeyedLocker construye el candado en memoria.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*keyedEntry)}
}

// Acquire espera el candado de key o hasta que ctx termine.
func (l *KeyedLocker) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.ref(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, fmt.Errorf("candado %s: %w: %w", key, domain.ErrBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key)
		})
	}, nil
}

func (l *KeyedLocker) ref(key string) *keyedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

// unref libera la entrada cuando nadie la usa, para que el mapa no crezca con cada correlativo.
func (l *KeyedLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size entradas vivas (tests).
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
