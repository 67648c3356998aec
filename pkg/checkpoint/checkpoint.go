// Package checkpoint gives enrich_partitioned an optional resume aid: a
// bbolt-backed record of which length partitions have already been folded
// into the shared CMS, so a killed and restarted run can skip completed
// partitions. It is grounded on the teacher's
// pipeline/1_DATA_MINER/internal/checkpoint.Checkpointer, which tracks
// processed-file completion the same way: one bucket, one key per completed
// item, a JSON metadata value.
//
// Checkpointing is opt-in and off by default; it does not contradict the
// no-persisted-state default, since the CMS itself is never serialized here
// — only "which partitions have been counted" is.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("ProcessedPartitions")

// PartitionMetadata records when and how large a completed partition was.
type PartitionMetadata struct {
	Length      int       `json:"length"`
	SequenceQty int       `json:"sequence_qty"`
	RowsEmitted int       `json:"rows_emitted"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Checkpointer wraps a bbolt database recording completed partitions by
// their bucket length key.
type Checkpointer struct {
	db *bbolt.DB
}

// Open opens (creating if absent) a checkpoint database at path.
func Open(path string) (*Checkpointer, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint bucket: %w", err)
	}
	return &Checkpointer{db: db}, nil
}

// Close closes the underlying database.
func (c *Checkpointer) Close() error {
	return c.db.Close()
}

// IsDone reports whether the partition keyed by length has already been
// processed in a prior run.
func (c *Checkpointer) IsDone(length int) bool {
	var exists bool
	c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get(partitionKey(length))
		exists = v != nil
		return nil
	})
	return exists
}

// MarkDone records that the partition keyed by length completed successfully.
func (c *Checkpointer) MarkDone(length int, meta PartitionMetadata) error {
	if meta.ProcessedAt.IsZero() {
		meta.ProcessedAt = time.Now()
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal partition metadata: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put(partitionKey(length), data)
	})
}

func partitionKey(length int) []byte {
	return []byte(fmt.Sprintf("partition:%d", length))
}
