package boltdb

import (
	"context"
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/storage"
)

var (
	keyDeviceID = []byte("device_id")
	keyClock    = []byte("clock_high_water")
)

// SaveDeviceID persists the device identity
func (s *Storage) SaveDeviceID(ctx context.Context, deviceID string) error {
	return s.putMeta(keyDeviceID, []byte(deviceID))
}

// DeviceID returns the persisted device identity, or "" if none
func (s *Storage) DeviceID(ctx context.Context) (string, error) {
	data, err := s.getMeta(keyDeviceID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveClock persists the journal clock high-water mark
func (s *Storage) SaveClock(ctx context.Context, last int64) error {
	return s.putMeta(keyClock, []byte(strconv.FormatInt(last, 10)))
}

// Clock returns the persisted clock high-water mark, or 0 if none
func (s *Storage) Clock(ctx context.Context) (int64, error) {
	data, err := s.getMeta(keyClock)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	last, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse clock value: %w", err)
	}
	return last, nil
}

func (s *Storage) putMeta(key, value []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (s *Storage) getMeta(key []byte) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return data, nil
}
