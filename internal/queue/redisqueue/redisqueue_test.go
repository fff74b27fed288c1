package redisqueue_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/queue/redisqueue"
)

var _ = Describe("Queue", func() {
	var (
		ctx    context.Context
		server *miniredis.Miniredis
		client *redis.Client
		queue  *redisqueue.Queue
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		server, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		queue = redisqueue.New(client, "crawl")
	})

	AfterEach(func() {
		server.Close()
	})

	It("round-trips a pushed job", func() {
		job := ports.Job{
			JobID:           "job-1",
			RunID:           "run-1",
			Type:            ports.JobDiscovery,
			MunicipalityKey: "teltow",
		}

		Expect(queue.Push(ctx, job)).To(Succeed())

		length, err := queue.Len(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(length).To(Equal(1))

		popped, err := queue.Pop(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(popped).To(Equal(job))
	})

	It("returns when ctx is cancelled before a job arrives", func() {
		cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := queue.Pop(cancelCtx)
		Expect(err).To(HaveOccurred())
	})
})
