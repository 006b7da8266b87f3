package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/embedder"
	"github.com/dharnesh67/neurohub/internal/port"
	"github.com/dharnesh67/neurohub/internal/summarizer"
)

// --- in-memory stores ---

type memProjectStore struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newMemProjectStore(projects ...*domain.Project) *memProjectStore {
	s := &memProjectStore{projects: make(map[string]*domain.Project)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memProjectStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *p
	created.ID = fmt.Sprintf("p%d", len(s.projects)+1)
	created.CreatedAt = time.Now()
	s.projects[created.ID] = &created
	return &created, nil
}

func (s *memProjectStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, port.ErrProjectNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *memProjectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Project
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memProjectStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return port.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

type memCommitStore struct {
	mu      sync.Mutex
	commits map[string][]domain.Commit // keyed by project ID
}

func newMemCommitStore() *memCommitStore {
	return &memCommitStore{commits: make(map[string][]domain.Commit)}
}

func (s *memCommitStore) ListCommitHashes(ctx context.Context, projectID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hashes []string
	for _, c := range s.commits[projectID] {
		hashes = append(hashes, c.Hash)
	}
	return hashes, nil
}

func (s *memCommitStore) ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Commit(nil), s.commits[projectID]...), nil
}

func (s *memCommitStore) InsertCommits(ctx context.Context, commits []domain.Commit) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, c := range commits {
		dup := false
		for _, existing := range s.commits[c.ProjectID] {
			if existing.Hash == c.Hash {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		s.commits[c.ProjectID] = append(s.commits[c.ProjectID], c)
		inserted++
	}
	return inserted, nil
}

func (s *memCommitStore) CountCommits(ctx context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commits[projectID]), nil
}

type memEmbeddingStore struct {
	mu      sync.Mutex
	records map[string]*domain.SourceEmbedding // keyed by projectID+"|"+path
	refs    []domain.FileReference             // canned similarity results
	upserts int
}

func newMemEmbeddingStore() *memEmbeddingStore {
	return &memEmbeddingStore{records: make(map[string]*domain.SourceEmbedding)}
}

func embKey(projectID, path string) string { return projectID + "|" + path }

func (s *memEmbeddingStore) GetContentHash(ctx context.Context, projectID, filePath string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[embKey(projectID, filePath)]
	if !ok {
		return "", false, nil
	}
	return r.ContentHash, true, nil
}

func (s *memEmbeddingStore) UpsertSourceEmbedding(ctx context.Context, e *domain.SourceEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *e
	s.records[embKey(e.ProjectID, e.FilePath)] = &copied
	s.upserts++
	return nil
}

func (s *memEmbeddingStore) SearchSimilar(ctx context.Context, projectID string, vector []float32, limit int) ([]domain.FileReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.refs) > limit {
		return append([]domain.FileReference(nil), s.refs[:limit]...), nil
	}
	return append([]domain.FileReference(nil), s.refs...), nil
}

func (s *memEmbeddingStore) CountSourceEmbeddings(ctx context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

func (s *memEmbeddingStore) record(projectID, path string) *domain.SourceEmbedding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[embKey(projectID, path)]
}

// --- fake SCM ---

type fakeSCM struct {
	mu          sync.Mutex
	commits     []domain.CommitSummary
	stats       map[string]domain.CommitStats
	statsErr    map[string]error
	branch      string
	files       map[string]string // path to content
	listErr     error
	statsCalls  int
	readCalls   int
	fileReadErr map[string]error
	tokens      []string // tokens passed to WithToken, in call order
}

func newFakeSCM() *fakeSCM {
	return &fakeSCM{
		stats:       make(map[string]domain.CommitStats),
		statsErr:    make(map[string]error),
		branch:      "main",
		files:       make(map[string]string),
		fileReadErr: make(map[string]error),
	}
}

func (f *fakeSCM) WithToken(token string) port.SCMProvider {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f
}

func (f *fakeSCM) ListCommits(ctx context.Context, owner, repo string, limit int) ([]domain.CommitSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.commits) > limit {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeSCM) GetCommitStats(ctx context.Context, owner, repo, hash string) (domain.CommitStats, error) {
	f.mu.Lock()
	f.statsCalls++
	f.mu.Unlock()
	if err := f.statsErr[hash]; err != nil {
		return domain.CommitStats{}, err
	}
	return f.stats[hash], nil
}

func (f *fakeSCM) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	return f.branch, nil
}

func (f *fakeSCM) ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error) {
	var paths []string
	for p := range f.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeSCM) ReadFile(ctx context.Context, owner, repo, ref, path string) (string, error) {
	f.mu.Lock()
	f.readCalls++
	f.mu.Unlock()
	if err := f.fileReadErr[path]; err != nil {
		return "", err
	}
	content, ok := f.files[path]
	if !ok {
		return "", errors.New("file not found: " + path)
	}
	return content, nil
}

// --- fake AI ---

type fakeAI struct {
	mu        sync.Mutex
	reply     string
	stream    []string
	vector    []float32
	embedErr  error
	genErr    error
	streamErr error
	prompts   []string
}

func (f *fakeAI) ModelName() string { return "fake" }

func (f *fakeAI) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

func (f *fakeAI) GenerateTextStream(ctx context.Context, prompt string) (<-chan string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan string, len(f.stream))
	for _, tok := range f.stream {
		ch <- tok
	}
	close(ch)
	return ch, nil
}

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vector, nil
}

// --- shared helpers ---

func fastRetry() batch.RetryConfig {
	return batch.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func fastBatch() batch.Options {
	return batch.Options{GroupSize: 3, GroupDelay: time.Millisecond}
}

func newSummarizer(ai port.AIProvider) *summarizer.Summarizer {
	return summarizer.New(ai, fastRetry(), 16)
}

func newEmbedder(ai port.AIProvider, dim int) *embedder.Embedder {
	return embedder.New(ai, dim, 1000, fastRetry())
}

func vectorOf(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 0.5
	}
	return v
}
