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

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	offline "github.com/ruh-app/offline-go"
	"github.com/ruh-app/offline-go/models"
)

const (
	headerStatusReport = "Store report"
	headerPruneReport  = "Prune report"
)

// CollectionStatus holds the counts of one collection.
type CollectionStatus struct {
	Total    int `json:"total"`
	Unsynced int `json:"unsynced"`
}

// StatusReport holds the counts of the whole store.
type StatusReport struct {
	DataDir   string           `json:"data_dir"`
	Engine    string           `json:"engine"`
	Chat      CollectionStatus `json:"chat"`
	Wellness  CollectionStatus `json:"wellness"`
	Favorites CollectionStatus `json:"favorites"`
}

// PruneReport holds the number of records removed per collection.
type PruneReport struct {
	Chat      int `json:"chat"`
	Wellness  int `json:"wellness"`
	Favorites int `json:"favorites"`
}

func collectionStatus[T models.Syncable[T]](
	ctx context.Context,
	c *offline.Collection[T],
) (CollectionStatus, error) {
	records, err := c.List(ctx)
	if err != nil {
		return CollectionStatus{}, err
	}

	status := CollectionStatus{Total: len(records)}

	for _, record := range records {
		if !record.IsSynced() {
			status.Unsynced++
		}
	}

	return status, nil
}

func listRecords[T models.Syncable[T]](
	ctx context.Context,
	c *offline.Collection[T],
	unsyncedOnly bool,
) ([]T, error) {
	if unsyncedOnly {
		return c.Unsynced(ctx)
	}

	return c.List(ctx)
}

// ReportStatus prints the status report.
// if isJSON is true, it prints the report in JSON format, but logger must be passed
func ReportStatus(report *StatusReport, isJSON bool, logger *slog.Logger) {
	if isJSON {
		logStatusReport(report, logger)
		return
	}

	printStatusReport(report)
}

func printStatusReport(report *StatusReport) {
	fmt.Println(headerStatusReport)
	fmt.Println(strings.Repeat("-", len(headerStatusReport)))

	printMetric("Data Dir", report.DataDir)
	printMetric("Engine", report.Engine)

	fmt.Println()

	printCollectionMetric("Chat Messages", report.Chat)
	printCollectionMetric("Check-Ins", report.Wellness)
	printCollectionMetric("Favorite Verses", report.Favorites)
}

func logStatusReport(report *StatusReport, logger *slog.Logger) {
	logger.Info("store report",
		slog.String("data_dir", report.DataDir),
		slog.String("engine", report.Engine),
		slog.Int("chat_total", report.Chat.Total),
		slog.Int("chat_unsynced", report.Chat.Unsynced),
		slog.Int("wellness_total", report.Wellness.Total),
		slog.Int("wellness_unsynced", report.Wellness.Unsynced),
		slog.Int("favorites_total", report.Favorites.Total),
		slog.Int("favorites_unsynced", report.Favorites.Unsynced),
	)
}

// ReportPrune prints the prune report.
// if isJSON is true, it prints the report in JSON format, but logger must be passed
func ReportPrune(report *PruneReport, isJSON bool, logger *slog.Logger) {
	if isJSON {
		logger.Info("prune report",
			slog.Int("chat_removed", report.Chat),
			slog.Int("wellness_removed", report.Wellness),
			slog.Int("favorites_removed", report.Favorites),
		)

		return
	}

	fmt.Println(headerPruneReport)
	fmt.Println(strings.Repeat("-", len(headerPruneReport)))

	printMetric("Chat Removed", report.Chat)
	printMetric("Wellness Removed", report.Wellness)
	printMetric("Favorites Removed", report.Favorites)
}

// ReportRecords prints the records of one collection, one line per record.
// if isJSON is true, it prints the whole collection as a JSON array instead.
func ReportRecords[T models.Syncable[T]](records []T, isJSON bool) error {
	if isJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(records)
	}

	fmt.Printf("%-40s %-8s %s\n", "ID", "SYNCED", "RECORD")

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", record.Key(), err)
		}

		fmt.Printf("%-40s %-8t %s\n", record.Key(), record.IsSynced(), data)
	}

	return nil
}

func printCollectionMetric(key string, status CollectionStatus) {
	printMetric(key, fmt.Sprintf("%d (%d unsynced)", status.Total, status.Unsynced))
}

func printMetric(key string, value any) {
	fmt.Printf("%s%v\n", indent(key), value)
}

func indent(key string) string {
	return fmt.Sprintf("%s:%s", key, strings.Repeat(" ", 21-len(key)))
}
