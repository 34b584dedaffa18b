// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"encoding/binary"
	"encoding/json"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	eventLogKeyPrefix = "eventlog/"
	// Allocating sequence values in batches keeps appends off the disk for
	// the common case
	eventLogSequenceBandwidth = 100
)

// EventLogEntry is a single persisted ledger event. Payloads are stored as
// JSON since they only need to be read back by humans and tests.
type EventLogEntry struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func eventLogKey(seq uint64) []byte {
	key := make([]byte, 0, len(eventLogKeyPrefix)+8)
	key = append(key, []byte(eventLogKeyPrefix)...)
	key = binary.BigEndian.AppendUint64(key, seq)
	return key
}

// eventLogSequence lazily creates the badger sequence used to order the log
func (d *Database) eventLogSequence() (*badger.Sequence, error) {
	d.eventLogSeqMutex.Lock()
	defer d.eventLogSeqMutex.Unlock()
	if d.eventLogSeq == nil {
		// The sequence key lives outside the entry prefix so it never
		// shows up when iterating the log
		seq, err := d.blob.GetSequence(
			[]byte("eventlog_seq"),
			eventLogSequenceBandwidth,
		)
		if err != nil {
			return nil, err
		}
		d.eventLogSeq = seq
	}
	return d.eventLogSeq, nil
}

// AppendEvent appends a ledger event to the durable event log.
func (d *Database) AppendEvent(
	eventType string,
	timestamp time.Time,
	data any,
) error {
	seq, err := d.eventLogSequence()
	if err != nil {
		return err
	}
	seqNum, err := seq.Next()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	entry := EventLogEntry{
		Seq:       seqNum,
		Type:      eventType,
		Timestamp: timestamp,
		Data:      payload,
	}
	val, err := json.Marshal(&entry)
	if err != nil {
		return err
	}
	return d.blob.Update(func(txn *badger.Txn) error {
		return txn.Set(eventLogKey(seqNum), val)
	})
}

// Events returns up to limit entries from the event log starting at the
// given sequence number. A zero limit returns all remaining entries.
func (d *Database) Events(startSeq, limit uint64) ([]EventLogEntry, error) {
	var ret []EventLogEntry
	err := d.blob.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(eventLogKeyPrefix)
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Seek(eventLogKey(startSeq)); iter.Valid(); iter.Next() {
			if limit > 0 && uint64(len(ret)) >= limit {
				break
			}
			val, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry EventLogEntry
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			ret = append(ret, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
