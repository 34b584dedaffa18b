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
	"errors"
	"fmt"
	"math/big"

	badger "github.com/dgraph-io/badger/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	commitTimestampBlobKey = "metadata_commit_timestamp"
	commitTimestampRowId   = 1
)

// CommitTimestamp represents the sqlite table used to track the current commit timestamp
type CommitTimestamp struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (CommitTimestamp) TableName() string {
	return "commit_timestamp"
}

type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// checkCommitTimestamp makes sure the two stores were last written together.
// A mismatch means one of them was restored or truncated independently.
func (d *Database) checkCommitTimestamp() error {
	metadataTimestamp, err := d.metadataCommitTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get metadata timestamp: %w", err)
	}
	// No timestamp in the database
	if metadataTimestamp <= 0 {
		return nil
	}
	blobTimestamp, err := d.blobCommitTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get blob timestamp: %w", err)
	}
	if blobTimestamp != metadataTimestamp {
		return CommitTimestampError{
			MetadataTimestamp: metadataTimestamp,
			BlobTimestamp:     blobTimestamp,
		}
	}
	return nil
}

// SetCommitTimestamp records the given timestamp in both stores.
func (d *Database) SetCommitTimestamp(timestamp int64) error {
	tmpCommitTimestamp := CommitTimestamp{
		ID:        commitTimestampRowId,
		Timestamp: timestamp,
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timestamp"}),
	}).Create(&tmpCommitTimestamp)
	if result.Error != nil {
		return result.Error
	}
	tmpTimestamp := new(big.Int).SetInt64(timestamp)
	return d.blob.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(commitTimestampBlobKey), tmpTimestamp.Bytes())
	})
}

func (d *Database) metadataCommitTimestamp() (int64, error) {
	var tmpCommitTimestamp CommitTimestamp
	result := d.metadata.First(&tmpCommitTimestamp)
	if result.Error != nil {
		// It's not an error if there's no records found
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return tmpCommitTimestamp.Timestamp, nil
}

func (d *Database) blobCommitTimestamp() (int64, error) {
	var ret int64
	err := d.blob.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(commitTimestampBlobKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		ret = new(big.Int).SetBytes(val).Int64()
		return nil
	})
	return ret, err
}
