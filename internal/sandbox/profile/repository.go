package profile

import (
	"fmt"
	"sync"

	"zroj/internal/sandbox/security"
)

// LanguageRepository resolves a language identifier into its LanguageSpec.
type LanguageRepository interface {
	Language(id string) (LanguageSpec, error)
}

// TaskRepository resolves a language and task type into the TaskProfile
// that governs resource limits for that combination.
type TaskRepository interface {
	Task(languageID string, taskType TaskType) (TaskProfile, error)
}

// LocalRepository is an in-memory LanguageRepository, TaskRepository, and
// engine.ProfileResolver backed by maps the caller fills at startup
// through RegisterLanguage, RegisterTask, and RegisterIsolation.
type LocalRepository struct {
	mu        sync.RWMutex
	languages map[string]LanguageSpec
	tasks     map[string]TaskProfile
	isolation map[string]security.IsolationProfile
}

// NewLocalRepository creates an empty repository ready to be populated with
// RegisterLanguage / RegisterTask / RegisterIsolation.
func NewLocalRepository() *LocalRepository {
	return &LocalRepository{
		languages: make(map[string]LanguageSpec),
		tasks:     make(map[string]TaskProfile),
		isolation: make(map[string]security.IsolationProfile),
	}
}

func (r *LocalRepository) RegisterLanguage(spec LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[spec.ID] = spec
}

func (r *LocalRepository) RegisterTask(profile TaskProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskKey(profile.LanguageID, profile.TaskType)] = profile
}

func (r *LocalRepository) RegisterIsolation(name string, iso security.IsolationProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isolation[name] = iso
}

func (r *LocalRepository) Language(id string) (LanguageSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.languages[id]
	if !ok {
		return LanguageSpec{}, fmt.Errorf("unknown language %q", id)
	}
	return spec, nil
}

func (r *LocalRepository) Task(languageID string, taskType TaskType) (TaskProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.tasks[taskKey(languageID, taskType)]
	if !ok {
		return TaskProfile{}, fmt.Errorf("unknown task profile %s/%s", languageID, taskType)
	}
	return profile, nil
}

// Resolve implements engine.ProfileResolver: profile names are looked up
// directly in the isolation table, falling back to a task profile's own
// RootFS/SeccompProfile when the name matches a registered task instead
// (a problem that wants its own chroot root or syscall filter for one
// language/task-type pair, without registering a separate named
// isolation profile for it).
func (r *LocalRepository) Resolve(profile string) (security.IsolationProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if iso, ok := r.isolation[profile]; ok {
		return iso, nil
	}
	if tp, ok := r.tasks[profile]; ok {
		return security.IsolationProfile{RootFS: tp.RootFS, SeccompProfile: tp.SeccompProfile}, nil
	}
	return security.IsolationProfile{}, fmt.Errorf("unknown isolation profile %q", profile)
}

func taskKey(languageID string, taskType TaskType) string {
	return languageID + "/" + string(taskType)
}
