package utils

import (
	"context"
	"sync"
)

// 并发限制：Pool容量即最大并发数
type ConcLimiter struct {
	*sync.WaitGroup
	Pool chan struct{}
}

func NewConcLimiter(level int) *ConcLimiter {
	if level < 1 {
		level = 1
	}
	var wg sync.WaitGroup
	return &ConcLimiter{&wg, make(chan struct{}, level)}
}

// 占用一个名额，ctx取消时返回false且不占用
func (c *ConcLimiter) Increase(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case c.Pool <- struct{}{}:
		c.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *ConcLimiter) Decrease() {
	select {
	case <-c.Pool:
		c.Done()
	default:
	}
}
