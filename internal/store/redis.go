// Package store provides storage backends for IntakePipe.
//
// This file implements a Redis-backed store. Sessions, leads, and the flow
// definition are stored as JSON values under namespaced keys, which suits the
// hot read-modify-write cycle of conversation turns.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key prefixes. Everything lives under the intakepipe namespace so the
// instance can be shared with other services.
const (
	redisSessionPrefix = "intakepipe:session:"
	redisLeadPrefix    = "intakepipe:lead:"
	redisFlowKey       = "intakepipe:flow:" + FlowName
)

// RedisStore persists sessions, leads, and the flow definition in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store from a redis:// DSN.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("RedisStore.NewRedisStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("RedisStore DSN not set")
		return nil, fmt.Errorf("redis DSN not set")
	}

	ropts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		slog.Error("RedisStore failed to parse DSN", "error", err)
		return nil, fmt.Errorf("failed to parse redis DSN: %w", err)
	}

	client := redis.NewClient(ropts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("RedisStore ping failed", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Debug("RedisStore connected")

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing Redis client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetSession retrieves a session by id, or (nil, nil) when absent.
func (s *RedisStore) GetSession(id string) (*models.Session, error) {
	data, err := s.client.Get(context.Background(), redisSessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore.GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Error("RedisStore.GetSession unmarshal failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &sess, nil
}

// SaveSession upserts a session.
func (s *RedisStore) SaveSession(sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(context.Background(), redisSessionPrefix+sess.ID, data, 0).Err(); err != nil {
		slog.Error("RedisStore.SaveSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("RedisStore.SaveSession succeeded", "sessionID", sess.ID, "mode", sess.Mode)
	return nil
}

// DeleteSession removes a session.
func (s *RedisStore) DeleteSession(id string) error {
	if err := s.client.Del(context.Background(), redisSessionPrefix+id).Err(); err != nil {
		slog.Error("RedisStore.DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// CreateLead persists a new lead, assigning an id when the record has none.
func (s *RedisStore) CreateLead(lead models.LeadRecord) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return "", fmt.Errorf("failed to encode lead: %w", err)
	}
	if err := s.client.Set(context.Background(), redisLeadPrefix+lead.ID, data, 0).Err(); err != nil {
		slog.Error("RedisStore.CreateLead failed", "error", err, "sessionID", lead.SessionID)
		return "", fmt.Errorf("failed to save lead for session %s: %w", lead.SessionID, err)
	}
	slog.Debug("RedisStore.CreateLead succeeded", "leadID", lead.ID, "sessionID", lead.SessionID)
	return lead.ID, nil
}

// UpdateLead applies a partial update to an existing lead.
func (s *RedisStore) UpdateLead(id string, upd LeadUpdate) error {
	lead, err := s.GetLead(id)
	if err != nil {
		return err
	}
	if lead == nil {
		return nil
	}
	if upd.PhoneNumber != "" {
		lead.PhoneNumber = upd.PhoneNumber
	}
	if upd.PhoneFormatted != "" {
		lead.PhoneFormatted = upd.PhoneFormatted
	}
	if upd.Status != "" {
		lead.Status = upd.Status
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead %s: %w", id, err)
	}
	if err := s.client.Set(context.Background(), redisLeadPrefix+id, data, 0).Err(); err != nil {
		slog.Error("RedisStore.UpdateLead failed", "error", err, "leadID", id)
		return fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	return nil
}

// GetLead retrieves a lead by id, or (nil, nil) when absent.
func (s *RedisStore) GetLead(id string) (*models.LeadRecord, error) {
	data, err := s.client.Get(context.Background(), redisLeadPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore.GetLead failed", "error", err, "leadID", id)
		return nil, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	var lead models.LeadRecord
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("failed to decode lead %s: %w", id, err)
	}
	return &lead, nil
}

// GetFlow retrieves the intake flow definition, or (nil, nil) when absent.
func (s *RedisStore) GetFlow() (*models.FlowDefinition, error) {
	data, err := s.client.Get(context.Background(), redisFlowKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore.GetFlow failed", "error", err)
		return nil, fmt.Errorf("failed to get flow definition: %w", err)
	}
	var flow models.FlowDefinition
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow definition: %w", err)
	}
	return &flow, nil
}

// SaveFlow upserts the intake flow definition.
func (s *RedisStore) SaveFlow(flow models.FlowDefinition) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow definition: %w", err)
	}
	if err := s.client.Set(context.Background(), redisFlowKey, data, 0).Err(); err != nil {
		slog.Error("RedisStore.SaveFlow failed", "error", err)
		return fmt.Errorf("failed to save flow definition: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
