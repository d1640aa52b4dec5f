package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civiclens/hansard/internal/models"
)

// MemoryIndex is an in-memory vector index using brute-force inner product
// search over normalized vectors (= cosine similarity), with per-entry metadata
// filtering. Suitable for corpora up to a few hundred thousand items.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	metas      []Meta
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// Add appends a vector with its id and metadata.
func (m *MemoryIndex) Add(ctx context.Context, id string, vec []float32, meta Meta) error {
	if len(vec) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), m.dimensions)
	}
	cp := make([]float32, m.dimensions)
	copy(cp, vec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, cp)
	m.metas = append(m.metas, meta)
	return nil
}

// Search returns up to limit ids ranked by inner product against query, keeping
// only entries matching category, scope, and filters.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, category models.Category, scopeID string, filters models.SearchFilters, limit int) ([]models.RankedID, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || len(m.ids) == 0 {
		return nil, nil
	}

	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(m.ids))
	for i, vec := range m.vectors {
		if !matches(m.metas[i], category, scopeID, filters) {
			continue
		}
		var dot float64
		for j := 0; j < m.dimensions; j++ {
			dot += float64(query[j] * vec[j])
		}
		scores = append(scores, scored{id: m.ids[i], score: dot})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})
	if limit > len(scores) {
		limit = len(scores)
	}
	out := make([]models.RankedID, limit)
	for i := 0; i < limit; i++ {
		out[i] = models.RankedID{ID: scores[i].id, Rank: i + 1}
	}
	return out, nil
}

func matches(meta Meta, category models.Category, scopeID string, f models.SearchFilters) bool {
	if meta.Category != category || meta.ScopeID != scopeID {
		return false
	}
	if f.Participant != "" && !hasParticipant(meta.Participants, f.Participant) {
		return false
	}
	if f.MatterID != "" && meta.MatterID != f.MatterID {
		return false
	}
	if f.DocType != "" && meta.DocType != f.DocType {
		return false
	}
	if f.From != nil && meta.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && meta.Date.After(*f.To) {
		return false
	}
	return true
}

func hasParticipant(participants []string, name string) bool {
	for _, p := range participants {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// Remove deletes vectors by id, rebuilding the backing slices.
func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	newIDs := make([]string, 0, len(m.ids))
	newVectors := make([][]float32, 0, len(m.vectors))
	newMetas := make([]Meta, 0, len(m.metas))
	for i, id := range m.ids {
		if !removeSet[id] {
			newIDs = append(newIDs, id)
			newVectors = append(newVectors, m.vectors[i])
			newMetas = append(newMetas, m.metas[i])
		}
	}
	m.ids = newIDs
	m.vectors = newVectors
	m.metas = newMetas
	return nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Save persists the index to path. Directory is created if needed.
// Format: dimension (4), n (4), then per entry: id, meta strings (length-prefixed),
// date (unix seconds, 8), vector (dimension*4 bytes).
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range m.ids {
		meta := m.metas[i]
		for _, s := range []string{id, string(meta.Category), meta.ScopeID, strings.Join(meta.Participants, "\x1f"), meta.MatterID, meta.DocType} {
			if err := writeString(f, s); err != nil {
				return err
			}
		}
		if err := binary.Write(f, binary.LittleEndian, meta.Date.Unix()); err != nil {
			return fmt.Errorf("write date: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// A missing file is not an error; the index is left unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = make([]string, 0, n)
	m.vectors = make([][]float32, 0, n)
	m.metas = make([]Meta, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		fields := make([]string, 6)
		for j := range fields {
			s, err := readString(f)
			if err != nil {
				return err
			}
			fields[j] = s
		}
		var unix int64
		if err := binary.Read(f, binary.LittleEndian, &unix); err != nil {
			return fmt.Errorf("read date: %w", err)
		}
		if _, err := readFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		m.ids = append(m.ids, fields[0])
		var participants []string
		if fields[3] != "" {
			participants = strings.Split(fields[3], "\x1f")
		}
		m.metas = append(m.metas, Meta{
			Category:     models.Category(fields[1]),
			ScopeID:      fields[2],
			Participants: participants,
			MatterID:     fields[4],
			DocType:      fields[5],
			Date:         time.Unix(unix, 0).UTC(),
		})
		m.vectors = append(m.vectors, bytesToFloat32Slice(buf))
	}
	return nil
}

func writeString(f *os.File, s string) error {
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("write string len: %w", err)
	}
	if _, err := f.WriteString(s); err != nil {
		return fmt.Errorf("write string: %w", err)
	}
	return nil
}

func readString(f *os.File) (string, error) {
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("read string len: %w", err)
	}
	b := make([]byte, n)
	if _, err := readFull(f, b); err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	return string(b), nil
}

func readFull(f *os.File, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := f.Read(b[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
