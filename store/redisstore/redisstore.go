/*
Package redisstore provides a store.Store that keeps the patterns of a
mining run on a redis server, so that workers running on other processes
can report their results to the process assembling them.

Patterns of partition p are kept in a list under the key prefix:p, each
pattern encoded as its comma separated ranks followed by a colon and its
support, such as "4,2,0:17". The set under prefix:partitions holds the
partitions with stored patterns.
*/
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/store"
	"gopkg.in/redis.v5"
)

// putScript replaces the list at KEYS[1] with ARGV[2:] and adds
// ARGV[1] to the set at KEYS[2], atomically.
const putScript = `
redis.call("DEL", KEYS[1])
for i = 2, #ARGV do
    redis.call("RPUSH", KEYS[1], ARGV[i])
end
redis.call("SADD", KEYS[2], ARGV[1])
return #ARGV - 1
`

type redisStore struct {
	rc     *redis.Client
	prefix string
}

//New builds a store.Store backed by a redis DB
func New(rc *redis.Client, prefix string) store.Store {
	return &redisStore{rc, prefix}
}

func (rs *redisStore) Put(ctx context.Context, partition int, patterns []itemset.RankPattern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args := make([]interface{}, 0, len(patterns)+1)
	args = append(args, partition)
	for _, p := range patterns {
		args = append(args, Encode(p))
	}
	err := rs.rc.Eval(putScript, []string{rs.keyFor(partition), rs.partitionsKey()}, args...).Err()
	if err != nil {
		return fmt.Errorf("storing %d patterns of partition %d: %v", len(patterns), partition, err)
	}
	return nil
}

func (rs *redisStore) All(ctx context.Context) (map[int][]itemset.RankPattern, error) {
	members, err := rs.rc.SMembers(rs.partitionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("retrieving stored partitions: %v", err)
	}
	result := make(map[int][]itemset.RankPattern, len(members))
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		partition, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("retrieving stored partitions: invalid partition %q", m)
		}
		data, err := rs.rc.LRange(rs.keyFor(partition), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("retrieving patterns of partition %d: %v", partition, err)
		}
		patterns := make([]itemset.RankPattern, len(data))
		for i, d := range data {
			patterns[i], err = Decode(d)
			if err != nil {
				return nil, fmt.Errorf("retrieving patterns of partition %d: %v", partition, err)
			}
		}
		result[partition] = patterns
	}
	return result, nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) keyFor(partition int) string {
	return fmt.Sprintf("%s:%d", rs.prefix, partition)
}

func (rs *redisStore) partitionsKey() string {
	return fmt.Sprintf("%s:partitions", rs.prefix)
}

// Encode returns the representation of a pattern kept on redis.
func Encode(p itemset.RankPattern) string {
	var b strings.Builder
	for i, r := range p.Ranks {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(r)))
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(p.Support))
	return b.String()
}

// Decode parses a pattern encoded with Encode.
func Decode(s string) (itemset.RankPattern, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 1 {
		return itemset.RankPattern{}, fmt.Errorf("decoding pattern %q: missing ranks or support", s)
	}
	support, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return itemset.RankPattern{}, fmt.Errorf("decoding pattern %q: invalid support: %v", s, err)
	}
	fields := strings.Split(s[:i], ",")
	ranks := make([]itemset.Rank, len(fields))
	for j, f := range fields {
		r, err := strconv.Atoi(f)
		if err != nil || r < 0 {
			return itemset.RankPattern{}, fmt.Errorf("decoding pattern %q: invalid rank %q", s, f)
		}
		ranks[j] = itemset.Rank(r)
	}
	return itemset.RankPattern{Ranks: ranks, Support: support}, nil
}
