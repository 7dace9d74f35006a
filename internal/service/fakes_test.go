package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"clubevents/internal/model"
	"clubevents/internal/repo/repotest"
)

func newFakeRepo() *repotest.Memory {
	return repotest.NewMemory()
}

var errDBDown = errors.New("connection refused")

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	delays   []int
	err      error
}

func (p *fakePublisher) Publish(message []byte, delaySeconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	p.delays = append(p.delays, delaySeconds)
	return nil
}

type fakeCache struct {
	events      []model.EventDetails
	hit         bool
	invalidated int
	sets        int
	onGet       func()
}

func (c *fakeCache) GetPublicEvents(context.Context) ([]model.EventDetails, bool, error) {
	if c.onGet != nil {
		c.onGet()
	}
	return c.events, c.hit, nil
}

func (c *fakeCache) SetPublicEvents(_ context.Context, events []model.EventDetails) error {
	c.events = events
	c.hit = true
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.events = nil
	c.hit = false
	c.invalidated++
	return nil
}
