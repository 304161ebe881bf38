package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

type metaData struct {
	Projects map[string]domain.Project       `json:"projects"`
	Guides   map[string]domain.ResearchGuide `json:"guides"`   // keyed by project id
	Sessions map[string]domain.Session       `json:"sessions"` // keyed by session id
	Themes   map[string]domain.SessionThemes `json:"themes"`   // keyed by session id
}

// Store is a durable document store keyed by identifier: one JSON file,
// atomically replaced on every write.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{
		Projects: map[string]domain.Project{},
		Guides:   map[string]domain.ResearchGuide{},
		Sessions: map[string]domain.Session{},
		Themes:   map[string]domain.SessionThemes{},
	}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	s.ensureMaps()
	return nil
}

// --- Projects ---

func (s *Store) CreateProject(name string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()
	project := domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}
	s.data.Projects[project.ID] = project

	if err := s.saveLocked(); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *Store) ListProjects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]domain.Project, 0, len(s.data.Projects))
	for _, project := range s.data.Projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt != projects[j].CreatedAt {
			return projects[i].CreatedAt > projects[j].CreatedAt
		}
		return projects[i].ID < projects[j].ID
	})
	return projects
}

func (s *Store) GetProject(id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.data.Projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return project, nil
}

// DeleteProject removes the project and cascades to its guide, sessions
// and themes. Owned entities never outlive their project.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	delete(s.data.Projects, id)
	delete(s.data.Guides, id)
	for sid, session := range s.data.Sessions {
		if session.ProjectID == id {
			delete(s.data.Sessions, sid)
			delete(s.data.Themes, sid)
		}
	}

	return s.saveLocked()
}

// --- Guides ---

func (s *Store) SaveGuide(guide domain.ResearchGuide) (domain.ResearchGuide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()
	if _, ok := s.data.Projects[guide.ProjectID]; !ok {
		return domain.ResearchGuide{}, fmt.Errorf("project %s: %w", guide.ProjectID, domain.ErrNotFound)
	}
	s.data.Guides[guide.ProjectID] = guide

	if err := s.saveLocked(); err != nil {
		return domain.ResearchGuide{}, err
	}
	return guide, nil
}

func (s *Store) GetGuide(projectID string) (domain.ResearchGuide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guide, ok := s.data.Guides[projectID]
	if !ok {
		return domain.ResearchGuide{}, fmt.Errorf("guide for project %s: %w", projectID, domain.ErrNotFound)
	}
	return guide, nil
}

// --- Sessions ---

// CreateSession stores a freshly parsed transcript as a new uploaded
// session and assigns the next participant number for the project.
func (s *Store) CreateSession(projectID string, transcript []domain.Turn) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()
	project, ok := s.data.Projects[projectID]
	if !ok {
		return domain.Session{}, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}

	existing := 0
	for _, session := range s.data.Sessions {
		if session.ProjectID == projectID {
			existing++
		}
	}

	session := domain.Session{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		ParticipantID: fmt.Sprintf("P%02d", existing+1),
		Transcript:    transcript,
		UploadedAt:    time.Now().UnixNano(),
		Status:        domain.SessionStatusUploaded,
	}
	s.data.Sessions[session.ID] = session

	project.SessionCount = existing + 1
	project.ParticipantCount = existing + 1
	s.data.Projects[projectID] = project

	if err := s.saveLocked(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data.Sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return session, nil
}

func (s *Store) ListSessions(projectID string) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listSessionsLocked(projectID)
}

func (s *Store) listSessionsLocked(projectID string) []domain.Session {
	sessions := make([]domain.Session, 0)
	for _, session := range s.data.Sessions {
		if session.ProjectID == projectID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UploadedAt != sessions[j].UploadedAt {
			return sessions[i].UploadedAt < sessions[j].UploadedAt
		}
		return sessions[i].ParticipantID < sessions[j].ParticipantID
	})
	return sessions
}

func (s *Store) UpdateSession(session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Sessions[session.ID]; !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	s.data.Sessions[session.ID] = session

	if err := s.saveLocked(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// --- Themes ---

func (s *Store) SaveThemes(themes domain.SessionThemes) (domain.SessionThemes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()
	if _, ok := s.data.Sessions[themes.SessionID]; !ok {
		return domain.SessionThemes{}, fmt.Errorf("session %s: %w", themes.SessionID, domain.ErrNotFound)
	}
	s.data.Themes[themes.SessionID] = themes

	if err := s.saveLocked(); err != nil {
		return domain.SessionThemes{}, err
	}
	return themes, nil
}

func (s *Store) GetThemes(sessionID string) (domain.SessionThemes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	themes, ok := s.data.Themes[sessionID]
	if !ok {
		return domain.SessionThemes{}, fmt.Errorf("themes for session %s: %w", sessionID, domain.ErrNotFound)
	}
	return themes, nil
}

// ListProjectThemes aggregates themes across a project's sessions,
// ordered by session upload time.
func (s *Store) ListProjectThemes(projectID string) []domain.SessionThemes {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.SessionThemes, 0)
	for _, session := range s.listSessionsLocked(projectID) {
		if themes, ok := s.data.Themes[session.ID]; ok {
			all = append(all, themes)
		}
	}
	return all
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}

func (s *Store) ensureMaps() {
	if s.data.Projects == nil {
		s.data.Projects = map[string]domain.Project{}
	}
	if s.data.Guides == nil {
		s.data.Guides = map[string]domain.ResearchGuide{}
	}
	if s.data.Sessions == nil {
		s.data.Sessions = map[string]domain.Session{}
	}
	if s.data.Themes == nil {
		s.data.Themes = map[string]domain.SessionThemes{}
	}
}
