//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// UniqueTopicAndGroup — топик задач и группа воркеров с уникальным суффиксом.
func UniqueTopicAndGroup(base string) (topic, group string) {
	suffix := strconv.FormatInt(time.Now().UTC().UnixNano(), 36) + "-" + UniqSuffix()
	topic = base + "-jobs-" + suffix
	return topic, topic + "-workers"
}

// EnsureTopic — топик с заданным числом партиций (существующий топик не ошибка),
// ожидание, пока все партиции появятся в метаданных.
// broker: "host:port", "PLAINTEXT://host:port" или список через запятую (берётся первый).
func EnsureTopic(ctx context.Context, broker, topic string, partitions int) error {
	if partitions <= 0 {
		partitions = 1
	}
	addr := bootstrapAddr(broker)

	var d kafka.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	admin, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return waitPartitions(ctx, &d, addr, topic, partitions)
}

// bootstrapAddr — первый адрес bootstrap-строки без схемы.
func bootstrapAddr(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if strings.Contains(first, "://") {
		if u, err := url.Parse(first); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return first
}

func waitPartitions(ctx context.Context, d *kafka.Dialer, addr, topic string, want int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		got, err := countPartitions(ctx, d, addr, topic)
		if err == nil && got >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %q not ready (%d/%d partitions, last err: %v): %w", topic, got, want, err, ctx.Err())
		case <-tick.C:
		}
	}
}

func countPartitions(ctx context.Context, d *kafka.Dialer, addr, topic string) (int, error) {
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	parts, err := c.ReadPartitions(topic)
	return len(parts), err
}
