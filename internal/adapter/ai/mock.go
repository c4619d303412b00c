package ai

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// MockClient implements domain.AIClient deterministically for offline and dev
// use: no API key, no network. Vectors are hash-derived and normalized, so
// identical texts stay identical across processes.
type MockClient struct {
	Dims int
}

// NewMockClient constructs a deterministic mock AI client with 384 dims,
// matching small sentence-embedding models.
func NewMockClient() *MockClient { return &MockClient{Dims: 384} }

func (m *MockClient) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Normalize(hashVector(t, m.Dims))
	}
	return out, nil
}

// ChatJSON returns an empty JSON object; the schema validator treats every
// field as optional, so callers degrade to the heuristic extraction path.
func (m *MockClient) ChatJSON(_ domain.Context, _, _ string, _ int) (string, error) {
	b, _ := json.Marshal(map[string]any{})
	return string(b), nil
}

func (m *MockClient) SourceTag() string { return "mock:v1" }

func hashVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	seed := sha256.Sum256([]byte(text))
	var counter [40]byte
	copy(counter[:], seed[:])
	for i := 0; i < dims; i++ {
		binary.BigEndian.PutUint64(counter[32:], uint64(i))
		h := sha256.Sum256(counter[:])
		u := binary.BigEndian.Uint64(h[:8])
		// Map to [-1, 1).
		v[i] = float32(int64(u>>11))/float32(1<<52) - 1
	}
	return v
}
