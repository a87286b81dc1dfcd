package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// channelOf — канал очереди по виду задачи.
func channelOf(kind domain.JobKind) string {
	switch kind {
	case domain.JobInboundOrder, domain.JobInboundStatus:
		return domain.ChannelInbound
	case domain.JobPushStatus:
		return domain.ChannelOutbound
	default:
		return domain.ChannelSync
	}
}

// NewJob — задача с новым id; payload сериализуется в JSON (json.RawMessage передаётся как есть).
func NewJob(kind domain.JobKind, key string, configID int64, payload any) (domain.Job, error) {
	job := domain.Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Channel:    channelOf(kind),
		Key:        key,
		ConfigID:   configID,
		EnqueuedAt: time.Now().UTC(),
	}
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		job.Payload = p
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return domain.Job{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		job.Payload = raw
	}
	return job, nil
}
