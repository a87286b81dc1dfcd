//go:build integration

package kafka_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/mpsync/internal/domain"
	ikafka "github.com/Gunvolt24/mpsync/internal/kafka"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/testutil"
	"github.com/Gunvolt24/mpsync/pkg/logger"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safe(t *testing.T) string { return reUnsafe.ReplaceAllString(t.Name(), "-") }

// 1) Задача из продюсера доходит до обработчика
func TestKafka_ProduceConsume_TC(t *testing.T) {
	st := newStack(t, "first")
	h := newRecordingHandler(3)
	st.run(t, h)

	job := testJob("job-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, job))

	h.waitFor(t, job.ID, 0)
}

// 2) Мусор в топике пропускается, следующая задача обрабатывается
func TestKafka_Skip_Garbage_Then_Handle_TC(t *testing.T) {
	st := newStack(t, "first")
	h := newRecordingHandler(3)
	st.run(t, h)

	writeMsg(t, st.ctx, st.kf.Brokers, st.topic, []byte("not-a-json"))
	job := testJob("job-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, job))

	h.waitFor(t, job.ID, 0)
	require.Equal(t, 1, h.count(job.ID))
}

// 3) Временная ошибка: повтор приходит через брокер с Attempt+1
func TestKafka_TransientFailure_Requeued_TC(t *testing.T) {
	st := newStack(t, "first")
	h := newRecordingHandler(3)
	h.failFirst = 1
	st.run(t, h)

	job := testJob("job-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, job))

	h.waitFor(t, job.ID, 1)
	require.Equal(t, 2, h.count(job.ID))
}

// 4) Попытки исчерпаны: OnExhausted вызван один раз, повторов больше нет
func TestKafka_Exhausted_TC(t *testing.T) {
	st := newStack(t, "first")
	h := newRecordingHandler(2)
	h.failFirst = 100
	st.run(t, h)

	job := testJob("job-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, job))

	require.Eventually(t, func() bool { return h.exhaustedCount() == 1 }, 20*time.Second, 100*time.Millisecond)
	time.Sleep(time.Second)
	require.Equal(t, 2, h.count(job.ID))
}

// 5) StartOffset="last": задачи, опубликованные до старта консьюмера, игнорируются
func TestKafka_StartOffset_Last_IgnoresOld_TC(t *testing.T) {
	st := newStack(t, "last")

	old := testJob("old-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, old))

	h := newRecordingHandler(3)
	st.run(t, h)

	// публикуем повторно, пока одна из копий не окажется после стартовой позиции
	fresh := testJob("new-" + testutil.UniqSuffix())
	require.Eventually(t, func() bool {
		_ = st.producer.Enqueue(st.ctx, fresh)
		return h.count(fresh.ID) > 0
	}, 20*time.Second, 300*time.Millisecond)
	require.Zero(t, h.count(old.ID))
}

// 6) At-least-once через рестарт: повтор не поставлен → без коммита → передоставка
func TestKafka_Redelivery_AfterRestart_NoCommit_TC(t *testing.T) {
	st := newStack(t, "first")

	job := testJob("job-" + testutil.UniqSuffix())
	require.NoError(t, st.producer.Enqueue(st.ctx, job))

	// Фаза 1: обработчик падает, очередь повторов недоступна
	failing := newRecordingHandler(5)
	failing.failFirst = 100
	c1 := ikafka.NewConsumer(st.consumerConfig(), failing, brokenQueue{}, st.log)
	runCtx1, cancelRun1 := context.WithCancel(st.ctx)
	go func() { _ = c1.Run(runCtx1) }()
	require.Eventually(t, func() bool { return failing.count(job.ID) > 0 }, 20*time.Second, 100*time.Millisecond)
	cancelRun1()
	_ = c1.Close()

	// Фаза 2: та же группа перечитывает некоммиченную задачу
	h := newRecordingHandler(5)
	st.run(t, h)
	h.waitFor(t, job.ID, 0)
}

// -----------------функции-помощники-----------------

type stack struct {
	ctx         context.Context
	kf          *testutil.KafkaEnv
	topic       string
	group       string
	startOffset string
	log         ports.Logger
	producer    *ikafka.Producer
}

func newStack(t *testing.T, startOffset string) *stack {
	t.Helper()

	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancelStart)

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart, "mpsync-itc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	logg, closer, err := logger.NewZapLogger(false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	topic, group := testutil.UniqueTopicAndGroup(kf.BaseTopic + "-" + safe(t))
	require.NoError(t, testutil.EnsureTopic(ctx, kf.Brokers[0], topic, 3))

	producer := ikafka.NewProducer(&ikafka.ProducerConfig{Brokers: kf.Brokers, Topic: topic}, logg)
	t.Cleanup(func() { _ = producer.Close() })

	return &stack{ctx: ctx, kf: kf, topic: topic, group: group, startOffset: startOffset, log: logg, producer: producer}
}

func (s *stack) consumerConfig() *ikafka.ConsumerConfig {
	return &ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          s.topic,
		GroupID:        s.group,
		StartOffset:    s.startOffset,
		ProcessTimeout: 3 * time.Second,
		RetryInitial:   100 * time.Millisecond,
		RetryMax:       500 * time.Millisecond,
	}
}

// run — консьюмер, который ставит повторы обратно через продюсер стека.
func (s *stack) run(t *testing.T, h ports.JobHandler) {
	t.Helper()
	c := ikafka.NewConsumer(s.consumerConfig(), h, s.producer, s.log)
	runCtx, cancelRun := context.WithCancel(s.ctx)
	t.Cleanup(func() {
		cancelRun()
		_ = c.Close()
	})
	go func() { _ = c.Run(runCtx) }()

	// даём консьюмеру присоединиться к группе/получить assignment
	time.Sleep(1500 * time.Millisecond)
}

func testJob(id string) domain.Job {
	return domain.Job{
		ID:         id,
		Kind:       domain.JobPushStatus,
		Channel:    domain.ChannelOutbound,
		Key:        "EXT-" + id,
		EnqueuedAt: time.Now().UTC(),
	}
}

func writeMsg(t *testing.T, ctx context.Context, brokers []string, topic string, payload []byte) {
	t.Helper()
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
	defer w.Close()
	require.NoError(t, w.WriteMessages(ctx, kafka.Message{Value: payload}))
}

// recordingHandler — запоминает попытки; первые failFirst попыток падают временной ошибкой.
type recordingHandler struct {
	mu          sync.Mutex
	maxAttempts int
	failFirst   int
	seen        map[string][]int
	exhausted   int
}

func newRecordingHandler(maxAttempts int) *recordingHandler {
	return &recordingHandler{maxAttempts: maxAttempts, seen: map[string][]int{}}
}

func (h *recordingHandler) HandleJob(_ context.Context, job domain.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[job.ID] = append(h.seen[job.ID], job.Attempt)
	if len(h.seen[job.ID]) <= h.failFirst {
		return errors.New("temporary failure")
	}
	return nil
}

func (h *recordingHandler) MaxAttempts(context.Context, domain.Job) int { return h.maxAttempts }

func (h *recordingHandler) OnExhausted(context.Context, domain.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exhausted++
}

func (h *recordingHandler) count(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen[id])
}

func (h *recordingHandler) exhaustedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exhausted
}

// waitFor — ждёт попытку attempt задачи id.
func (h *recordingHandler) waitFor(t *testing.T, id string, attempt int) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, a := range h.seen[id] {
			if a == attempt {
				return true
			}
		}
		return false
	}, 20*time.Second, 100*time.Millisecond, "job %s attempt %d not handled in time", id, attempt)
}

// brokenQueue — очередь повторов, которая всегда недоступна.
type brokenQueue struct{}

func (brokenQueue) Enqueue(context.Context, domain.Job) error { return errors.New("broker down") }
