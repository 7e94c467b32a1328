// Package redis provides a best-effort cache of the latest prediction
// per cartridge, so read-heavy consumers can serve last-known
// forecasts without recomputing them.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/openclaw/resinprophet/pkg/prophet"
)

const tenantSetPrefix = "resinprophet:tenant:"

// PredictionCache stores the latest Prediction per cartridge in Redis.
type PredictionCache struct {
	client *redis.Client
}

// NewPredictionCache creates a cache over an existing Redis client.
func NewPredictionCache(client *redis.Client) *PredictionCache {
	return &PredictionCache{client: client}
}

func predictionKey(cartridgeID string) string {
	return fmt.Sprintf("resinprophet:prediction:%s", cartridgeID)
}

func tenantSetKey(tenantID string) string {
	return tenantSetPrefix + tenantID
}

// Put stores a prediction and indexes it under its tenant.
func (c *PredictionCache) Put(ctx context.Context, tenantID string, p *prophet.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	key := predictionKey(p.CartridgeID)
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to SET %s: %w", key, err)
	}
	if err := c.client.SAdd(ctx, tenantSetKey(tenantID), key).Err(); err != nil {
		return fmt.Errorf("failed to SADD tenant index: %w", err)
	}
	return nil
}

// Get returns the cached prediction for a cartridge, if present.
func (c *PredictionCache) Get(ctx context.Context, cartridgeID string) (*prophet.Prediction, bool) {
	data, err := c.client.Get(ctx, predictionKey(cartridgeID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to GET prediction %s: %v", cartridgeID, err)
		}
		return nil, false
	}
	var p prophet.Prediction
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		log.Printf("Failed to unmarshal prediction %s: %v", cartridgeID, err)
		return nil, false
	}
	return &p, true
}

// All returns every cached prediction for a tenant. Missing or
// malformed entries are skipped.
func (c *PredictionCache) All(ctx context.Context, tenantID string) []*prophet.Prediction {
	keys, err := c.client.SMembers(ctx, tenantSetKey(tenantID)).Result()
	if err != nil {
		log.Printf("Failed to SMEMBERS tenant %s: %v", tenantID, err)
		return nil
	}
	if len(keys) == 0 {
		return nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("Failed to MGET predictions: %v", err)
		return nil
	}

	var predictions []*prophet.Prediction
	for i, val := range values {
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			log.Printf("MGET returned non-string for key %s", keys[i])
			continue
		}
		var p prophet.Prediction
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			log.Printf("Failed to unmarshal prediction for key %s: %v", keys[i], err)
			continue
		}
		predictions = append(predictions, &p)
	}
	return predictions
}

// Clear removes a tenant's cached predictions.
func (c *PredictionCache) Clear(ctx context.Context, tenantID string) {
	keys, err := c.client.SMembers(ctx, tenantSetKey(tenantID)).Result()
	if err != nil {
		log.Printf("Failed to SMEMBERS tenant %s during clear: %v", tenantID, err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("Failed to DEL prediction keys: %v", err)
		}
	}
	if err := c.client.Del(ctx, tenantSetKey(tenantID)).Err(); err != nil {
		log.Printf("Failed to DEL tenant set %s: %v", tenantID, err)
	}
}
