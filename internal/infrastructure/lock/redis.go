package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/pkg/logger"
)

var _ inventory.Locker = (*RedisLocker)(nil)

// releaseScript borra la clave solo si sigue siendo nuestra (mismo token).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker candado distribuido con SET NX PX y token aleatorio por adquisición.
type RedisLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
	log        *logger.Logger
}

// NewRedisLocker construye el candado. ttl acota cuánto puede durar una mutación.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, retries int, log *logger.Logger) *RedisLocker {
	if retries < 1 {
		retries = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{client: client, ttl: ttl, retries: retries, retryDelay: 100 * time.Millisecond, log: log}
}

// Acquire intenta tomar key hasta retries veces; si no lo logra devuelve domain.ErrBusy.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	for attempt := 1; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, domain.NewPersistenceError("acquire lock", err)
		}
		if ok {
			break
		}
		if attempt >= l.retries {
			return nil, fmt.Errorf("candado %s: %w", key, domain.ErrBusy)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("candado %s: %w: %w", key, domain.ErrBusy, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		// La liberación no depende del contexto de la petición, que puede estar cancelado.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("liberar candado")
		}
	}, nil
}
