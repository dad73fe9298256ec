/*
Package redis provides a budget.Store on Redis.

LAYOUT (per owner, under a configurable prefix, default "budget"):
  <prefix>:<owner>:state         JSON document: settings, base expenses,
                                 categories, goals
  <prefix>:<owner>:transactions  hash of transaction id -> JSON entry

  The ledger is a hash so a re-sent entry overwrites itself. Entries are
  ordered by seq on load.

USAGE:
  store, err := redis.Open(ctx, "localhost:6379", "budget")
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/budget-engine/budget"
)

// Store implements budget.Store on Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// ParseOptions accepts either a redis:// URL or a bare host:port.
func ParseOptions(redisURL string) (*goredis.Options, error) {
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return opt, nil
}

// Open connects and pings the server.
func Open(ctx context.Context, redisURL, prefix string) (*Store, error) {
	opt, err := ParseOptions(redisURL)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "budget"
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) stateKey(owner budget.OwnerKey) string {
	return fmt.Sprintf("%s:%s:state", s.prefix, owner)
}

func (s *Store) ledgerKey(owner budget.OwnerKey) string {
	return fmt.Sprintf("%s:%s:transactions", s.prefix, owner)
}

// Load returns the owner's budget, or nil when nothing is stored.
func (s *Store) Load(ctx context.Context, owner budget.OwnerKey) (*budget.State, error) {
	var state budget.State
	found := true

	raw, err := s.client.Get(ctx, s.stateKey(owner)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		found = false
	case err != nil:
		return nil, fmt.Errorf("failed to load state: %w", err)
	default:
		var doc stateDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode state: %w", err)
		}
		state = doc.toState()
	}

	entries, err := s.client.HVals(ctx, s.ledgerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	for _, entry := range entries {
		var tx transactionDocument
		if err := json.Unmarshal([]byte(entry), &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		state.Transactions = append(state.Transactions, tx.toTransaction())
	}
	sort.SliceStable(state.Transactions, func(i, j int) bool {
		return state.Transactions[i].Seq < state.Transactions[j].Seq
	})

	if !found && len(state.Transactions) == 0 {
		return nil, nil
	}
	return &state, nil
}

// Save writes the state document. The ledger hash is left untouched.
func (s *Store) Save(ctx context.Context, owner budget.OwnerKey, state budget.State) error {
	raw, err := json.Marshal(newStateDocument(state))
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(owner), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// AppendTransaction stores one ledger entry under its id.
func (s *Store) AppendTransaction(ctx context.Context, owner budget.OwnerKey, tx budget.Transaction) error {
	raw, err := json.Marshal(newTransactionDocument(tx))
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}
	if err := s.client.HSet(ctx, s.ledgerKey(owner), string(tx.ID), raw).Err(); err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

var _ budget.Store = (*Store)(nil)
