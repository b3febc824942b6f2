// Package stream provides DynamoDB Streams handlers that keep generated key
// properties current.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/manager"
	"github.com/jacentio/entitymanager/store"
)

// Handler processes DynamoDB stream events for key refreshes.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleKeyRefresh processes DynamoDB stream events and rewrites records
// whose generated properties no longer match their other properties, e.g.
// after a config change adds a generated property or a writer skipped
// AddKeys. Records keep their hash key.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleKeyRefresh(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "INSERT" && record.EventName != "MODIFY" {
		return nil
	}
	image := record.Change.NewImage

	// Deleted records expire as they are
	if getNumberAttr(image, h.store.Config().TTLAttribute) != 0 {
		return nil
	}

	m := h.store.Manager()
	cfg := m.Config()
	hashKey := getStringAttr(image, cfg.HashKey)
	entityToken, err := m.EntityTokenFromHashKey(hashKey)
	if err != nil {
		h.logger.Debug("skipping record of unknown entity",
			"eventID", record.EventID,
			"hashKey", hashKey,
		)
		return nil
	}

	item, err := ConvertImage(image)
	if err != nil {
		return fmt.Errorf("convert image: %w", err)
	}
	keyed, err := m.AddKeys(entityToken, item, false)
	if err != nil {
		return fmt.Errorf("add keys: %w", err)
	}

	changed := changedProperties(item, keyed, keyProperties(cfg))
	if len(changed) == 0 {
		return nil
	}

	h.logger.Info("refreshing keys",
		"entity", entityToken,
		"hashKey", hashKey,
		"changed", changed,
	)
	if _, err := h.store.Put(ctx, entityToken, item); err != nil {
		return fmt.Errorf("put %s: %w", entityToken, err)
	}
	return nil
}

// changedProperties lists the range key and generated properties that differ
// between the stored and the recomputed record.
func changedProperties(stored, keyed manager.Item, names []string) []string {
	var changed []string
	for _, name := range names {
		a, aok := stored[name].(string)
		b, bok := keyed[name].(string)
		if aok != bok || a != b {
			changed = append(changed, name)
		}
	}
	return changed
}

// keyProperties returns the range key and every generated property name, sorted.
func keyProperties(cfg config.Config) []string {
	names := []string{cfg.RangeKey}
	for name := range cfg.GeneratedProperties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
