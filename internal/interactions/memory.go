package interactions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"newsintel/internal/core"
)

// MemoryStore is an in-memory interaction store with the same contract as
// Store, used by tests and by callers that bring their own profile source.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]core.UserProfile
	logs     map[string][]core.Interaction
}

// NewMemoryStore creates an empty in-memory interaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]core.UserProfile),
		logs:     make(map[string][]core.Interaction),
	}
}

// SaveProfile upserts a user's stated preferences.
func (m *MemoryStore) SaveProfile(ctx context.Context, profile core.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := profile
	stored.History = nil
	m.profiles[profile.UserID] = stored
	return nil
}

// Append records one interaction at the end of the user's log.
func (m *MemoryStore) Append(ctx context.Context, userID string, interaction core.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[userID] = append(m.logs[userID], interaction)
	return nil
}

// Profile returns the user's preferences together with the interaction log.
func (m *MemoryStore) Profile(ctx context.Context, userID string) (*core.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, known := m.profiles[userID]
	history := m.logs[userID]
	if !known && len(history) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, core.ErrProfileUnavailable)
	}

	profile := stored
	profile.UserID = userID
	profile.History = append([]core.Interaction(nil), history...)
	return &profile, nil
}

// History returns the user's interaction log ordered oldest first.
func (m *MemoryStore) History(ctx context.Context, userID string) ([]core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Interaction(nil), m.logs[userID]...), nil
}

// HistoriesTouching returns other users' interactions referencing any of
// the given fingerprints.
func (m *MemoryStore) HistoriesTouching(ctx context.Context, fingerprints []string, excludeUser string) (map[string][]core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(fingerprints))
	for _, fp := range fingerprints {
		wanted[fp] = true
	}

	histories := make(map[string][]core.Interaction)
	users := make([]string, 0, len(m.logs))
	for userID := range m.logs {
		users = append(users, userID)
	}
	sort.Strings(users)

	for _, userID := range users {
		if userID == excludeUser {
			continue
		}
		for _, interaction := range m.logs[userID] {
			if wanted[interaction.Fingerprint] {
				histories[userID] = append(histories[userID], interaction)
			}
		}
	}

	return histories, nil
}
