// Package cache provides the Valkey client and the rendered invitation
// page cache that sits in front of the content engine.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const valkeyPingTimeout = 5 * time.Second

// ConnectValkey dials Valkey on DB 0 and pings it. The client is shared by
// sessions and the page cache.
func ConnectValkey(ctx context.Context, host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, port),
		Password:     password,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, valkeyPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey %s: %w", client.Options().Addr, err)
	}

	slog.Info("valkey connected", "addr", client.Options().Addr)
	return client, nil
}
