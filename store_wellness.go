// Copyright 2025 Ruh App, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package offline

import (
	"context"
	"sort"

	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/models"
)

// WellnessStore persists wellness check-ins.
type WellnessStore struct {
	*Collection[models.WellnessCheckIn]
}

// NewWellnessStore creates the check-in collection over storage.
func NewWellnessStore(storage Storage, opts ...CollectionOpt) (*WellnessStore, error) {
	coll, err := newCollection[models.WellnessCheckIn](storage, WellnessStoreKey, logging.StoreTypeWellness, opts...)
	if err != nil {
		return nil, err
	}

	return &WellnessStore{Collection: coll}, nil
}

// History builds the check-in history view from the store, newest first.
func (s *WellnessStore) History(ctx context.Context) (models.WellnessHistory, error) {
	records, err := s.List(ctx)
	if err != nil {
		return models.WellnessHistory{}, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	return models.WellnessHistory{
		TotalEntries: len(records),
		Entries:      records,
	}, nil
}
