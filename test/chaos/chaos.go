package chaos

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const killOneBackend = `
	SELECT count(*) FROM (
		SELECT pg_terminate_backend(pid) FROM pg_stat_activity
		WHERE datname = current_database()
		  AND pid <> pg_backend_pid()
		  AND backend_type = 'client backend'
		ORDER BY random() LIMIT 1
	) killed`

// Monkey drops a random client connection to the test database now and then,
// so services see broken connections mid-request.
type Monkey struct {
	Pool *pgxpool.Pool
	// Every is the tick interval; OneIn the odds of a kill per tick.
	Every time.Duration
	OneIn int

	kills atomic.Int64
}

// Run ticks until ctx ends or stop closes.
func (m *Monkey) Run(ctx context.Context, stop <-chan struct{}) {
	every, oneIn := m.Every, m.OneIn
	if every <= 0 {
		every = 2 * time.Second
	}
	if oneIn <= 0 {
		oneIn = 5
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(oneIn) != 0 {
				continue
			}
			var n int64
			if err := m.Pool.QueryRow(ctx, killOneBackend).Scan(&n); err == nil {
				m.kills.Add(n)
			}
		}
	}
}

// Kills reports how many backends were terminated so far.
func (m *Monkey) Kills() int64 {
	return m.kills.Load()
}
