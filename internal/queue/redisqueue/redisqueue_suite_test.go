package redisqueue_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRedisQueue(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Redis Queue Suite")
}
