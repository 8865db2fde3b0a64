package ledger

import (
	"context"
	"sort"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/kvprovider"
)

// KVLedger keeps a pipeline's ids in a single set.
type KVLedger struct {
	kv  kvprovider.KVInterface
	key string
}

func NewKVLedger(kv kvprovider.KVInterface, pipeline string) *KVLedger {
	return &KVLedger{kv: kv, key: "ledger." + pipeline}
}

func (l *KVLedger) Append(ctx context.Context, ids ...string) error {
	_, err := l.kv.SAdd(ctx, l.key, ids...)
	return err
}

func (l *KVLedger) Contains(ctx context.Context, id string) (bool, error) {
	return l.kv.SIsMember(ctx, l.key, id)
}

func (l *KVLedger) AllIDs(ctx context.Context) ([]string, error) {
	ids, err := l.kv.SMembers(ctx, l.key)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
