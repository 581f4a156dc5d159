package builder

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// resultCache memoizes calibrated curves by quote fingerprint. Calibration
// dominates request latency, so repeated snapshots come back for free.
type resultCache struct {
	lru *lru.Cache[uint64, *BuildResult]
}

func newResultCache(capacity int) (*resultCache, error) {
	c, err := lru.New[uint64, *BuildResult](capacity)
	if err != nil {
		return nil, err
	}
	return &resultCache{lru: c}, nil
}

func (c *resultCache) get(key uint64) (*BuildResult, bool) {
	return c.lru.Get(key)
}

func (c *resultCache) put(key uint64, res *BuildResult) {
	c.lru.Add(key, res)
}

// fingerprint hashes everything a build depends on. The mode tag keeps the
// smooth and composite variants of the same snapshot apart.
func fingerprint(curveDate time.Time, quotes QuoteSet, events []EventQuote, mode string) uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeInt64 := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	h.WriteString(mode)
	writeInt64(curveDate.Unix())
	for i, t := range quotes.Tenors {
		h.WriteString(t)
		writeFloat(quotes.Rates[i])
	}
	for _, ev := range events {
		writeInt64(ev.Date.Unix())
		writeFloat(ev.Rate)
	}
	return h.Sum64()
}
