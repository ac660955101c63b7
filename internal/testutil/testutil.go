// Package testutil provides in-memory store fakes for usecase tests. The
// fakes keep the same atomicity guarantees as the SQL stores (claims and
// quota increments happen under one lock) so concurrency tests are
// meaningful.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"project_canvass/internal/entities"

	"golang.org/x/crypto/bcrypt"
)

// FakeStore implements interfaces.UserStore and interfaces.SessionStore
// over maps.
type FakeStore struct {
	mu       sync.Mutex
	users    map[int]*entities.User
	byName   map[string]int
	sessions map[int]*entities.Session
	profiles map[int]*entities.Profile
	nextID   int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:    make(map[int]*entities.User),
		byName:   make(map[string]int),
		sessions: make(map[int]*entities.Session),
		profiles: make(map[int]*entities.Profile),
		nextID:   1,
	}
}

// AddUser registers a user with a bcrypt hash of the given password.
// MinCost keeps the test suite fast.
func (s *FakeStore) AddUser(u entities.User, password string) *entities.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.nextID
	}
	if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	u.PasswordHash = string(hash)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	stored := u
	s.users[stored.ID] = &stored
	s.byName[stored.Username] = stored.ID
	return &stored
}

func (s *FakeStore) AddProfile(p entities.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := p
	s.profiles[p.UserID] = &stored
}

// SetLastActivity backdates a session for inactivity tests.
func (s *FakeStore) SetLastActivity(userID int, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.LastActivityAt = t
	}
}

// SetExpiry backdates a session's absolute expiry.
func (s *FakeStore) SetExpiry(userID int, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.ExpiresAt = t
	}
}

func (s *FakeStore) HasSession(userID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// ---- interfaces.UserStore ----

func (s *FakeStore) GetByID(_ context.Context, userID int) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *FakeStore) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, nil
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *FakeStore) GetProfile(_ context.Context, mainAdminID int) (*entities.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[mainAdminID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *FakeStore) CreateSubUser(_ context.Context, adminID int, username, passwordHash string, sectionNo int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.users[adminID]
	if !ok {
		return 0, entities.ErrUserNotFound
	}
	if admin.Users >= admin.Allocated {
		return 0, &entities.QuotaError{Allocated: admin.Allocated, Current: admin.Users}
	}
	if _, taken := s.byName[username]; taken {
		return 0, entities.ErrUsernameTaken
	}

	admin.Users++
	id := s.nextID
	s.nextID++
	section := sectionNo
	parent := adminID
	s.users[id] = &entities.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         entities.RoleSubuser,
		ParentID:     &parent,
		SectionNo:    &section,
		CreatedAt:    time.Now(),
	}
	s.byName[username] = id
	return id, nil
}

func (s *FakeStore) ListSubUsers(_ context.Context, parentID int) ([]entities.SubUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []entities.SubUser
	for _, u := range s.users {
		if u.ParentID != nil && *u.ParentID == parentID {
			result = append(result, entities.SubUser{
				UserID:    u.ID,
				Username:  u.Username,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *FakeStore) SetAllocation(_ context.Context, userID, allocated int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.Role != entities.RoleAdmin {
		return false, nil
	}
	u.Allocated = allocated
	return true, nil
}

func (s *FakeStore) Status(_ context.Context, userID int) (*entities.UserStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	remaining := u.Allocated - u.Users
	if remaining < 0 {
		remaining = 0
	}
	return &entities.UserStatus{
		UserID:    u.ID,
		Active:    u.Active,
		Allocated: u.Allocated,
		Users:     u.Users,
		Role:      u.Role,
		Remaining: remaining,
	}, nil
}

// ---- interfaces.SessionStore ----

func (s *FakeStore) Claim(_ context.Context, username string, verify func(passwordHash string) bool,
	sessionID string, expiresAt time.Time, inactivity time.Duration) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, entities.ErrInvalidCredentials
	}
	u := s.users[id]
	if !verify(u.PasswordHash) {
		return nil, entities.ErrInvalidCredentials
	}

	now := time.Now()
	if cur, exists := s.sessions[id]; exists && u.Active &&
		cur.ExpiresAt.After(now) && now.Sub(cur.LastActivityAt) < inactivity {
		return nil, entities.ErrAlreadyLoggedIn
	}

	s.sessions[id] = &entities.Session{
		UserID:         id,
		SessionID:      sessionID,
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	u.Active = true
	lastLogin := now
	u.LastLoginAt = &lastLogin

	copied := *u
	return &copied, nil
}

func (s *FakeStore) Get(_ context.Context, userID int) (*entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *FakeStore) Touch(_ context.Context, userID int, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok && sess.SessionID == sessionID {
		sess.LastActivityAt = time.Now()
	}
	return nil
}

func (s *FakeStore) Extend(_ context.Context, userID int, sessionID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok && sess.SessionID == sessionID {
		sess.ExpiresAt = expiresAt
	}
	return nil
}

func (s *FakeStore) Clear(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	if u, ok := s.users[userID]; ok {
		u.Active = false
	}
	return nil
}

func (s *FakeStore) CleanupExpired(_ context.Context, inactivity time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var n int64
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) || now.Sub(sess.LastActivityAt) >= inactivity {
			delete(s.sessions, id)
			if u, ok := s.users[id]; ok {
				u.Active = false
			}
			n++
		}
	}
	return n, nil
}

// VisitKey identifies one voter's visit flag within one tenant.
type VisitKey struct {
	VoterID  int
	TenantID int
}

// FakeVoterStore implements interfaces.VoterStore over maps.
type FakeVoterStore struct {
	mu     sync.Mutex
	voters map[int]*entities.Voter
	visits map[VisitKey]bool
}

func NewFakeVoterStore() *FakeVoterStore {
	return &FakeVoterStore{
		voters: make(map[int]*entities.Voter),
		visits: make(map[VisitKey]bool),
	}
}

func (s *FakeVoterStore) AddVoter(v entities.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := v
	s.voters[v.VoterID] = &stored
}

func (s *FakeVoterStore) SetVisited(voterID, tenantID int, visited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[VisitKey{voterID, tenantID}] = visited
}

func (s *FakeVoterStore) Visited(voterID, tenantID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[VisitKey{voterID, tenantID}]
}

func (s *FakeVoterStore) GetByID(_ context.Context, voterID int) (*entities.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voters[voterID]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (s *FakeVoterStore) GetSexes(_ context.Context, voterIDs []int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sexes []string
	for _, id := range voterIDs {
		if v, ok := s.voters[id]; ok {
			sexes = append(sexes, v.Sex)
		}
	}
	return sexes, nil
}

func (s *FakeVoterStore) List(_ context.Context, tenantID int, sectionNo *int, f entities.VoterFilter) ([]entities.VoterRow, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []entities.VoterRow
	for _, v := range s.sortedVoters() {
		if sectionNo != nil && (v.SectionNo == nil || *v.SectionNo != *sectionNo) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(v.EName+" "+v.Surname), strings.ToLower(f.Search)) {
			continue
		}
		visited := s.visits[VisitKey{v.VoterID, tenantID}]
		if f.Visited != nil && visited != *f.Visited {
			continue
		}
		rows = append(rows, entities.VoterRow{Voter: *v, Visited: visited})
	}

	total := len(rows)
	if f.Offset > 0 {
		if f.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[f.Offset:]
		}
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, total, nil
}

func (s *FakeVoterStore) Filters(_ context.Context, sectionNo *int) (*entities.VoterFilters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters := &entities.VoterFilters{MaxAge: 100}
	seenAddr := make(map[string]bool)
	seenPart := make(map[int]bool)
	for _, v := range s.voters {
		if sectionNo != nil && (v.SectionNo == nil || *v.SectionNo != *sectionNo) {
			continue
		}
		if v.Address != "" && !seenAddr[v.Address] {
			seenAddr[v.Address] = true
			filters.AddressList = append(filters.AddressList, v.Address)
		}
		if v.PartNo != nil && !seenPart[*v.PartNo] {
			seenPart[*v.PartNo] = true
			filters.PartList = append(filters.PartList, *v.PartNo)
		}
	}
	sort.Strings(filters.AddressList)
	sort.Ints(filters.PartList)
	return filters, nil
}

func (s *FakeVoterStore) Summary(_ context.Context, tenantID int) (*entities.VoterSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &entities.VoterSummary{SexBreakdown: make(map[string]int)}
	for _, v := range s.voters {
		summary.Total++
		if s.visits[VisitKey{v.VoterID, tenantID}] {
			summary.Visited++
		}
		if v.Sex != "" {
			summary.SexBreakdown[v.Sex]++
		}
	}
	summary.NotVisited = summary.Total - summary.Visited
	return summary, nil
}

func (s *FakeVoterStore) SurnameGroups(_ context.Context, sectionNo *int, surname string, limit, offset int) ([]entities.VoterGroup, int, error) {
	return s.groupBy(sectionNo, "surname", surname)
}

func (s *FakeVoterStore) GroupedView(_ context.Context, sectionNo int, groupBy string, f entities.GroupFilter, limit, offset int) ([]entities.VoterGroup, int, error) {
	switch groupBy {
	case "surname", "part_no", "address", "ward_no", "gender":
	default:
		return nil, 0, entities.ErrInvalidGroupView
	}
	return s.groupBy(&sectionNo, groupBy, f.Surname)
}

func (s *FakeVoterStore) groupBy(sectionNo *int, key, surnameFilter string) ([]entities.VoterGroup, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := make(map[string][]entities.GroupMember)
	for _, v := range s.sortedVoters() {
		if sectionNo != nil && (v.SectionNo == nil || *v.SectionNo != *sectionNo) {
			continue
		}
		if surnameFilter != "" && !strings.EqualFold(v.Surname, surnameFilter) {
			continue
		}
		group := groupKey(v, key)
		buckets[group] = append(buckets[group], entities.GroupMember{
			VEName:   v.VEName,
			IDCardNo: v.IDCardNo,
			Gender:   v.Sex,
			Age:      v.Age,
		})
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]entities.VoterGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, entities.VoterGroup{Group: k, Members: buckets[k]})
	}
	return groups, len(groups), nil
}

func groupKey(v *entities.Voter, key string) string {
	switch key {
	case "part_no":
		if v.PartNo != nil {
			return strconv.Itoa(*v.PartNo)
		}
	case "address":
		if v.Address != "" {
			return v.Address
		}
	case "ward_no":
		if v.SectionNo != nil {
			return strconv.Itoa(*v.SectionNo)
		}
	case "gender":
		if v.Sex != "" {
			return v.Sex
		}
	default:
		if v.Surname != "" {
			return strings.ToUpper(strings.TrimSpace(v.Surname))
		}
	}
	return "UNKNOWN"
}

func (s *FakeVoterStore) sortedVoters() []*entities.Voter {
	ids := make([]int, 0, len(s.voters))
	for id := range s.voters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]*entities.Voter, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.voters[id])
	}
	return result
}

// FakeSurveyStore implements interfaces.SurveyStore. VisitErr injects a
// failure into the visit write so atomicity can be asserted.
type FakeSurveyStore struct {
	mu       sync.Mutex
	voters   *FakeVoterStore
	surveys  []entities.Survey
	nextNo   int
	VisitErr error
}

func NewFakeSurveyStore(voters *FakeVoterStore) *FakeSurveyStore {
	return &FakeSurveyStore{voters: voters, nextNo: 1}
}

func (s *FakeSurveyStore) CreateWithVisits(_ context.Context, survey *entities.Survey, memberIDs []int, visited bool, tenantID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.VisitErr != nil {
		return 0, s.VisitErr
	}

	stored := *survey
	stored.SurveyNo = s.nextNo
	stored.UserID = tenantID
	s.nextNo++
	s.surveys = append(s.surveys, stored)

	for _, id := range memberIDs {
		s.voters.SetVisited(id, tenantID, visited)
	}
	return stored.SurveyNo, nil
}

func (s *FakeSurveyStore) List(_ context.Context, tenantID, limit, offset int) ([]entities.Survey, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []entities.Survey
	for _, sv := range s.surveys {
		if sv.UserID == tenantID {
			result = append(result, sv)
		}
	}
	total := len(result)
	if offset > 0 {
		if offset >= len(result) {
			result = nil
		} else {
			result = result[offset:]
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, total, nil
}
