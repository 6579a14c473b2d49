package service

import (
	"sync"
	"time"

	"github.com/lgdark7/timetable/internal/models"
)

// generationJobStore keeps recent background generation runs in memory.
type generationJobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.GenerationJob
}

func newGenerationJobStore(ttl time.Duration) *generationJobStore {
	return &generationJobStore{
		ttl:   ttl,
		items: make(map[string]models.GenerationJob),
	}
}

func (s *generationJobStore) Save(job models.GenerationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[job.ID] = job
	s.evictLocked(time.Now())
}

func (s *generationJobStore) Get(id string) (models.GenerationJob, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationJob{}, false
	}
	if s.expired(job, time.Now()) {
		s.Delete(id)
		return models.GenerationJob{}, false
	}
	return job, true
}

// Update applies fn to a stored job. It reports false when the job is unknown.
func (s *generationJobStore) Update(id string, fn func(*models.GenerationJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return false
	}
	fn(&job)
	s.items[id] = job
	return true
}

func (s *generationJobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// expired only applies to finished jobs; queued and running ones stay visible.
func (s *generationJobStore) expired(job models.GenerationJob, now time.Time) bool {
	return job.FinishedAt != nil && now.Sub(*job.FinishedAt) > s.ttl
}

func (s *generationJobStore) evictLocked(now time.Time) {
	for id, job := range s.items {
		if s.expired(job, now) {
			delete(s.items, id)
		}
	}
}
