package ingest

import (
	"context"
	"time"

	"github.com/sig-0/travelrates/storage/types"
)

type (
	nameDelegate     func() string
	intervalDelegate func() time.Duration
	harvestDelegate  func(context.Context) (*types.Harvest, error)
)

type mockProvider struct {
	nameFn     nameDelegate
	intervalFn intervalDelegate
	harvestFn  harvestDelegate
}

func (m *mockProvider) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockProvider) Interval() time.Duration {
	if m.intervalFn != nil {
		return m.intervalFn()
	}

	return 0
}

func (m *mockProvider) Harvest(ctx context.Context) (*types.Harvest, error) {
	if m.harvestFn != nil {
		return m.harvestFn(ctx)
	}

	return &types.Harvest{}, nil
}
