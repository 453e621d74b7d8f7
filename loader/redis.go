package loader

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

/*
RedisJSON reads a dataset document stored as a plain string value under key.

kwargs:
  - addr: host:port, default localhost:6379
  - key: required
  - db, password: optional
  - select: optional gjson path into the stored document
*/
func RedisJSON(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	key, err := stringArg(args, kwargs, 0, "key")
	if err != nil {
		return nil, err
	}
	addr, err := optionalString(kwargs, "addr", "localhost:6379")
	if err != nil {
		return nil, err
	}
	password, err := optionalString(kwargs, "password", "")
	if err != nil {
		return nil, err
	}
	db, err := optionalInt(kwargs, "db", 0)
	if err != nil {
		return nil, err
	}
	sel, err := optionalString(kwargs, "select", "")
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	defer client.Close()

	raw, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("redis.json: key %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.json: %w", err)
	}
	return decodeDocument("redis.json", raw, sel)
}
