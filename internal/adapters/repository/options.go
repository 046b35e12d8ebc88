package repository

import "github.com/okian/meritrack/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithUsers seeds the account table.
func WithUsers(users ...model.User) Option {
	return func(s *MemoryStore) {
		for _, u := range users {
			if u.ID != "" {
				s.users[u.ID] = u
			}
		}
	}
}

// WithResumes seeds the resume table in upload order.
func WithResumes(resumes ...model.Resume) Option {
	return func(s *MemoryStore) {
		s.resumes = append(s.resumes, resumes...)
	}
}
