package acquire

import (
	"context"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"github.com/stretchr/testify/mock"
)

// MockChunkGenerator is a mock implementation of ChunkGenerator for testing.
type MockChunkGenerator struct {
	mock.Mock
}

var _ contract.ChunkGenerator = &MockChunkGenerator{} // Compile-time check

// Generate implements the ChunkGenerator interface.
func (m *MockChunkGenerator) Generate(ctx context.Context, req schema.ChunkRequest) ([]schema.ChunkRow, error) {
	args := m.Called(ctx, req)
	rows, _ := args.Get(0).([]schema.ChunkRow)
	return rows, args.Error(1)
}

// Name implements the ChunkGenerator interface.
func (m *MockChunkGenerator) Name() string {
	args := m.Called()
	return args.String(0)
}
