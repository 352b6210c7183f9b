package agent

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Snapshot wire format (little-endian):
//
//	[0:4]   magic "BJQ1"
//	[4:8]   uint32 row count
//	then per row, sorted by (PlayerTotal, DealerRef, UsableAce):
//	  int32   player total
//	  int32   dealer reference value
//	  uint8   usable-ace flag (0/1)
//	  float64 hit estimate (IEEE-754 bits)
//	  float64 stand estimate (IEEE-754 bits)
//
// Estimates travel as raw bits, so save/load round-trips with exact
// floating-point equality. Hyperparameters are run configuration, not
// learned state, and are not part of the snapshot.

const (
	snapshotMagic  = "BJQ1"
	snapshotHeader = 8
	snapshotRow    = 4 + 4 + 1 + 8 + 8
)

// Snapshot serializes the entire value table. Rows are emitted in sorted
// key order, so equal tables produce identical bytes.
func (q *QLearner) Snapshot() []byte {
	keys := make([]StateKey, 0, len(q.table))
	for k := range q.table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.PlayerTotal != b.PlayerTotal {
			return a.PlayerTotal < b.PlayerTotal
		}
		if a.DealerRef != b.DealerRef {
			return a.DealerRef < b.DealerRef
		}
		return !a.UsableAce && b.UsableAce
	})

	buf := make([]byte, snapshotHeader+snapshotRow*len(keys))
	copy(buf[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(keys)))

	off := snapshotHeader
	for _, k := range keys {
		r := q.table[k]
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(k.PlayerTotal)))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(int32(k.DealerRef)))
		if k.UsableAce {
			buf[off+8] = 1
		}
		binary.LittleEndian.PutUint64(buf[off+9:], math.Float64bits(r[0]))
		binary.LittleEndian.PutUint64(buf[off+17:], math.Float64bits(r[1]))
		off += snapshotRow
	}
	return buf
}

// RestoreSnapshot replaces the value table with the rows decoded from data.
// Hyperparameters and the random source are left untouched.
func (q *QLearner) RestoreSnapshot(data []byte) error {
	if len(data) < snapshotHeader {
		return fmt.Errorf("snapshot too short (%d bytes)", len(data))
	}
	if string(data[0:4]) != snapshotMagic {
		return fmt.Errorf("bad snapshot magic %q", data[0:4])
	}
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	if want := snapshotHeader + snapshotRow*count; len(data) != want {
		return fmt.Errorf("snapshot length %d does not match %d rows (want %d)", len(data), count, want)
	}

	table := make(map[StateKey]*[NumLearnerActions]float64, count)
	off := snapshotHeader
	for i := 0; i < count; i++ {
		key := StateKey{
			PlayerTotal: int(int32(binary.LittleEndian.Uint32(data[off:]))),
			DealerRef:   int(int32(binary.LittleEndian.Uint32(data[off+4:]))),
			UsableAce:   data[off+8] == 1,
		}
		row := &[NumLearnerActions]float64{
			math.Float64frombits(binary.LittleEndian.Uint64(data[off+9:])),
			math.Float64frombits(binary.LittleEndian.Uint64(data[off+17:])),
		}
		if _, dup := table[key]; dup {
			return fmt.Errorf("snapshot contains duplicate state key %+v", key)
		}
		table[key] = row
		off += snapshotRow
	}

	q.table = table
	return nil
}
