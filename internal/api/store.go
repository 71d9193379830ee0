package api

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/utils"
)

const (
	minPasswordLength = 6
	searchLimit       = 20
)

const (
	notifyInvitation   = "group_invitation"
	notifyTaskAssigned = "task_assigned"
	notifyProgress     = "progress_updated"
)

type userRecord struct {
	models.User
	hash []byte
}

type taskRecord struct {
	models.Task
	assignees []uint // group tasks only
}

type groupRecord struct {
	models.Group // Tasks is filled on read
}

type fileRecord struct {
	models.File
	key     string
	content []byte
}

type progressKey struct {
	taskID, userID uint
}

type notificationRecord struct {
	models.Notification
	userID uint
}

type streakRecord struct {
	current, longest int
	last             time.Time // day of the last completion
}

// Store keeps every backend entity in memory.
type Store struct {
	mu sync.RWMutex

	now    func() time.Time
	nextID uint

	users         map[uint]*userRecord
	tasks         map[uint]*taskRecord
	groups        map[uint]*groupRecord
	files         map[uint]*fileRecord
	progress      map[progressKey]*models.Progress
	notifications map[uint]*notificationRecord
	streaks       map[uint]*streakRecord
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[uint]*userRecord),
		tasks:         make(map[uint]*taskRecord),
		groups:        make(map[uint]*groupRecord),
		files:         make(map[uint]*fileRecord),
		progress:      make(map[progressKey]*models.Progress),
		notifications: make(map[uint]*notificationRecord),
		streaks:       make(map[uint]*streakRecord),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// ===== Users =====

func (s *Store) CreateUser(username, email, password string) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, utils.BadRequest("username and email are required")
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, utils.BadRequest("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, utils.Conflict("username already taken")
		}
		if strings.EqualFold(u.Email, email) {
			return nil, utils.Conflict("email already registered")
		}
	}
	rec := &userRecord{
		User: models.User{ID: s.id(), Username: username, Email: email, CreatedAt: s.now().UTC()},
		hash: hash,
	}
	s.users[rec.ID] = rec
	u := rec.User
	return &u, nil
}

// Authenticate returns the user whose password matches.
func (s *Store) Authenticate(username, password string) (*models.User, error) {
	s.mu.RLock()
	var rec *userRecord
	for _, u := range s.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			rec = u
			break
		}
	}
	s.mu.RUnlock()

	invalid := utils.NewStatusError(http.StatusUnauthorized, "invalid username or password")
	if rec == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return nil, invalid
	}
	u := rec.User
	return &u, nil
}

func (s *Store) User(id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, utils.NotFound("user")
	}
	u := rec.User
	return &u, nil
}

func (s *Store) UpdateProfile(id uint, in models.ProfileInput) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, utils.NotFound("user")
	}
	rec.FullName, rec.Bio, rec.AvatarURL = in.FullName, in.Bio, in.AvatarURL
	u := rec.User
	return &u, nil
}

// SearchUsers matches username, email or full name. An empty query lists the first users.
func (s *Store) SearchUsers(q string) []models.User {
	q = strings.ToLower(strings.TrimSpace(q))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.User{}
	for _, u := range s.users {
		if q == "" || containsFold(u.Username, q) || containsFold(u.Email, q) || containsFold(u.FullName, q) {
			out = append(out, u.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q == "" && len(out) > searchLimit {
		out = out[:searchLimit]
	}
	return out
}

func containsFold(s, lowerQ string) bool {
	return strings.Contains(strings.ToLower(s), lowerQ)
}

// ===== Tasks =====

// view copies t with the status computed against the current time.
func (s *Store) view(t *taskRecord) models.Task {
	out := t.Task
	if out.EndTime != nil && out.Status != models.StatusCompleted && s.now().After(*out.EndTime) {
		out.Status = models.StatusExpired
	}
	return out
}

// canSee reports whether userID may read t: its creator, an assignee or a group admin.
func (s *Store) canSee(t *taskRecord, userID uint) bool {
	if t.CreatorID == userID {
		return true
	}
	if !t.IsGroupTask {
		return false
	}
	for _, id := range t.assignees {
		if id == userID {
			return true
		}
	}
	return s.isGroupAdmin(t.GroupID, userID)
}

// canManage reports whether userID may read the roster or override progress.
func (s *Store) canManage(t *taskRecord, userID uint) bool {
	return t.CreatorID == userID || s.isGroupAdmin(t.GroupID, userID)
}

func (s *Store) isGroupAdmin(groupID *uint, userID uint) bool {
	if groupID == nil {
		return false
	}
	g, ok := s.groups[*groupID]
	return ok && g.IsAdmin(userID)
}

func (s *Store) visibleTask(id, userID uint) (*taskRecord, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, utils.NotFound("task")
	}
	if !s.canSee(t, userID) {
		return nil, utils.Forbidden("you do not have access to this task")
	}
	return t, nil
}

// Tasks lists personal tasks of userID and group tasks assigned to them, newest first.
func (s *Store) Tasks(userID uint) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if (!t.IsGroupTask && t.CreatorID == userID) || (t.IsGroupTask && s.canSee(t, userID)) {
			out = append(out, s.view(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) Task(id, userID uint) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.visibleTask(id, userID)
	if err != nil {
		return nil, err
	}
	v := s.view(t)
	return &v, nil
}

func validateSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return utils.BadRequest("end_time must be after start_time")
	}
	return nil
}

func (s *Store) CreateTask(userID uint, in models.TaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, utils.BadRequest("title is required")
	}
	if err := validateSchedule(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t := &taskRecord{Task: models.Task{
		ID:          s.id(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      models.StatusPending,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		DueDate:     in.DueDate,
		CreatorID:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
	s.tasks[t.ID] = t
	v := s.view(t)
	return &v, nil
}

// UpdateTask applies the non-nil fields of patch. Only the creator may edit.
func (s *Store) UpdateTask(id, userID uint, patch models.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.visibleTask(id, userID)
	if err != nil {
		return nil, err
	}
	if t.CreatorID != userID {
		return nil, utils.Forbidden("only the task creator can edit it")
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, utils.BadRequest("title is required")
		}
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		st := *patch.Status
		if !st.Valid() || st == models.StatusExpired {
			return nil, utils.BadRequest("invalid status")
		}
		if st == models.StatusCompleted && t.Status != models.StatusCompleted {
			s.recordCompletion(userID)
		}
		t.Status = st
	}
	t.UpdatedAt = s.now().UTC()
	v := s.view(t)
	return &v, nil
}

func (s *Store) DeleteTask(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.visibleTask(id, userID)
	if err != nil {
		return err
	}
	if !s.canManage(t, userID) {
		return utils.Forbidden("only the task creator can delete it")
	}
	s.deleteTaskLocked(id)
	return nil
}

func (s *Store) deleteTaskLocked(id uint) {
	delete(s.tasks, id)
	for k := range s.progress {
		if k.taskID == id {
			delete(s.progress, k)
		}
	}
	for fid, f := range s.files {
		if f.TaskID == id {
			delete(s.files, fid)
		}
	}
}

// ===== Progress =====

func (s *Store) progressFor(taskID, userID uint) *models.Progress {
	k := progressKey{taskID, userID}
	p, ok := s.progress[k]
	if !ok {
		p = &models.Progress{TaskID: taskID, UserID: userID}
		s.progress[k] = p
	}
	return p
}

func (s *Store) withUser(p models.Progress) models.Progress {
	if u, ok := s.users[p.UserID]; ok {
		user := u.User
		p.User = &user
	}
	return p
}

func validateProgress(p int) error {
	if p < 0 || p > 100 {
		return utils.BadRequest("progress must be between 0 and 100")
	}
	return nil
}

// PersonalProgress returns the progress of a personal task.
func (s *Store) PersonalProgress(taskID, userID uint) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.visibleTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if t.IsGroupTask {
		return nil, utils.BadRequest("group task: use the member progress routes")
	}
	p := s.withUser(*s.progressFor(taskID, userID))
	return &p, nil
}

// UpdatePersonalProgress sets the progress of a personal task and moves its status along.
func (s *Store) UpdatePersonalProgress(taskID, userID uint, in models.ProgressInput) (*models.Progress, error) {
	if err := validateProgress(in.Progress); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.visibleTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if t.IsGroupTask {
		return nil, utils.BadRequest("group task: use the member progress routes")
	}
	if t.CreatorID != userID {
		return nil, utils.Forbidden("only the task creator can update its progress")
	}
	p := s.progressFor(taskID, userID)
	p.Progress, p.Notes = in.Progress, in.Notes
	p.IsCompleted = in.Progress == 100
	p.Approved = p.IsCompleted
	s.advanceStatus(t, in.Progress, userID)
	out := s.withUser(*p)
	return &out, nil
}

func (s *Store) advanceStatus(t *taskRecord, progress int, userID uint) {
	switch {
	case progress == 100 && t.Status != models.StatusCompleted:
		t.Status = models.StatusCompleted
		s.recordCompletion(userID)
	case progress > 0 && progress < 100:
		t.Status = models.StatusInProgress
	}
	t.UpdatedAt = s.now().UTC()
}

func (s *Store) groupTask(taskID, userID uint) (*taskRecord, error) {
	t, err := s.visibleTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if !t.IsGroupTask {
		return nil, utils.BadRequest("not a group task")
	}
	return t, nil
}

func isAssignee(t *taskRecord, userID uint) bool {
	for _, id := range t.assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// MyProgress returns the caller's progress on a group task.
func (s *Store) MyProgress(taskID, userID uint) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.groupTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if !isAssignee(t, userID) {
		return nil, utils.Forbidden("task is not assigned to you")
	}
	p := s.withUser(*s.progressFor(taskID, userID))
	return &p, nil
}

// UpdateMyProgress records the caller's progress on a group task. Approval is left
// to the group admin.
func (s *Store) UpdateMyProgress(taskID, userID uint, in models.ProgressInput) (*models.Progress, error) {
	if err := validateProgress(in.Progress); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.groupTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if !isAssignee(t, userID) {
		return nil, utils.Forbidden("task is not assigned to you")
	}
	p := s.progressFor(taskID, userID)
	p.Progress, p.Notes = in.Progress, in.Notes
	p.IsCompleted = in.Progress == 100
	if !p.IsCompleted {
		p.Approved = false
	}
	s.syncGroupStatus(t)
	if t.CreatorID != userID {
		s.notifyLocked(t.CreatorID, "Progress updated", "A member updated progress on "+t.Title, notifyProgress, t.ID)
	}
	out := s.withUser(*p)
	return &out, nil
}

// GroupProgress returns every assignee's progress. Creator or group admin only.
func (s *Store) GroupProgress(taskID, userID uint) ([]models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.groupTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(t, userID) {
		return nil, utils.Forbidden("only the task creator or a group admin can view member progress")
	}
	out := make([]models.Progress, 0, len(t.assignees))
	for _, id := range t.assignees {
		out = append(out, s.withUser(*s.progressFor(taskID, id)))
	}
	return out, nil
}

// OverrideProgress sets a member's progress and approval. Creator or group admin only.
func (s *Store) OverrideProgress(taskID, userID uint, in models.MemberProgressInput) (*models.Progress, error) {
	if err := validateProgress(in.Progress); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.groupTask(taskID, userID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(t, userID) {
		return nil, utils.Forbidden("only the task creator or a group admin can update member progress")
	}
	if !isAssignee(t, in.UserID) {
		return nil, utils.NotFound("assignee")
	}
	p := s.progressFor(taskID, in.UserID)
	p.Progress, p.Approved = in.Progress, in.Approved
	p.IsCompleted = in.Progress == 100
	if in.Notes != "" {
		p.Notes = in.Notes
	}
	s.syncGroupStatus(t)
	out := s.withUser(*p)
	return &out, nil
}

// syncGroupStatus completes a group task once every assignee is approved.
func (s *Store) syncGroupStatus(t *taskRecord) {
	approved, started := 0, false
	for _, id := range t.assignees {
		p := s.progressFor(t.ID, id)
		if p.Approved && p.IsCompleted {
			approved++
		}
		if p.Progress > 0 {
			started = true
		}
	}
	switch {
	case len(t.assignees) > 0 && approved == len(t.assignees):
		if t.Status != models.StatusCompleted {
			t.Status = models.StatusCompleted
			for _, id := range t.assignees {
				s.recordCompletion(id)
			}
		}
	case started:
		t.Status = models.StatusInProgress
	default:
		t.Status = models.StatusPending
	}
	t.UpdatedAt = s.now().UTC()
}

// ===== Groups =====

// groupView copies g with user details and the group's tasks attached.
func (s *Store) groupView(g *groupRecord) models.Group {
	out := g.Group
	out.Members = make([]models.Member, len(g.Members))
	for i, m := range g.Members {
		if u, ok := s.users[m.UserID]; ok {
			user := u.User
			m.User = &user
		}
		out.Members[i] = m
	}
	out.Tasks = []models.Task{}
	for _, t := range s.tasks {
		if t.GroupID != nil && *t.GroupID == g.ID {
			out.Tasks = append(out.Tasks, s.view(t))
		}
	}
	sort.Slice(out.Tasks, func(i, j int) bool { return out.Tasks[i].ID < out.Tasks[j].ID })
	return out
}

func (s *Store) memberGroup(id, userID uint) (*groupRecord, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, utils.NotFound("group")
	}
	if m := g.Member(userID); m == nil || !m.Accepted {
		return nil, utils.Forbidden("you are not a member of this group")
	}
	return g, nil
}

func (s *Store) adminGroup(id, userID uint) (*groupRecord, error) {
	g, err := s.memberGroup(id, userID)
	if err != nil {
		return nil, err
	}
	if !g.IsAdmin(userID) {
		return nil, utils.Forbidden("only group admins can do this")
	}
	return g, nil
}

// inviteLocked adds userIDs as pending members, skipping unknown users and existing members.
func (s *Store) inviteLocked(g *groupRecord, userIDs []uint) int {
	added := 0
	for _, id := range userIDs {
		if _, ok := s.users[id]; !ok || g.HasMember(id) {
			continue
		}
		g.Members = append(g.Members, models.Member{UserID: id, Role: models.RoleMember})
		s.notifyLocked(id, "Group invitation", "You were invited to join "+g.Name, notifyInvitation, g.ID)
		added++
	}
	return added
}

// Groups lists the groups userID has joined.
func (s *Store) Groups(userID uint) []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Group{}
	for _, g := range s.groups {
		if m := g.Member(userID); m != nil && m.Accepted {
			out = append(out, s.groupView(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Group(id, userID uint) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, err := s.memberGroup(id, userID)
	if err != nil {
		return nil, err
	}
	v := s.groupView(g)
	return &v, nil
}

// CreateGroup makes userID the sole admin and invites in.UserIDs.
func (s *Store) CreateGroup(userID uint, in models.GroupInput) (*models.Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.BadRequest("group name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &groupRecord{Group: models.Group{
		ID:          s.id(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatorID:   userID,
		Members:     []models.Member{{UserID: userID, Role: models.RoleAdmin, Accepted: true}},
		CreatedAt:   s.now().UTC(),
	}}
	s.groups[g.ID] = g
	s.inviteLocked(g, in.UserIDs)
	v := s.groupView(g)
	return &v, nil
}

func (s *Store) UpdateGroup(id, userID uint, patch models.GroupPatch) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.adminGroup(id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, utils.BadRequest("group name is required")
		}
		g.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	v := s.groupView(g)
	return &v, nil
}

// DeleteGroup removes the group and its tasks.
func (s *Store) DeleteGroup(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.adminGroup(id, userID); err != nil {
		return err
	}
	for tid, t := range s.tasks {
		if t.GroupID != nil && *t.GroupID == id {
			s.deleteTaskLocked(tid)
		}
	}
	delete(s.groups, id)
	return nil
}

func (s *Store) SearchGroups(q string) []models.Group {
	q = strings.ToLower(strings.TrimSpace(q))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Group{}
	for _, g := range s.groups {
		if q == "" || containsFold(g.Name, q) || containsFold(g.Description, q) {
			v := g.Group
			v.Tasks = nil
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddMembers invites userIDs. Listing only existing members is a conflict.
func (s *Store) AddMembers(id, userID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return utils.BadRequest("user_ids is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.adminGroup(id, userID)
	if err != nil {
		return err
	}
	for _, uid := range userIDs {
		if g.HasMember(uid) {
			return utils.Conflict("user is already a member of this group")
		}
		if _, ok := s.users[uid]; !ok {
			return utils.NotFound("user")
		}
	}
	s.inviteLocked(g, userIDs)
	return nil
}

// RemoveMember drops memberID. The admin cannot be removed.
func (s *Store) RemoveMember(id, userID, memberID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.adminGroup(id, userID)
	if err != nil {
		return err
	}
	m := g.Member(memberID)
	if m == nil {
		return utils.NotFound("member")
	}
	if m.Role == models.RoleAdmin {
		return utils.BadRequest("the group admin cannot be removed")
	}
	kept := g.Members[:0]
	for _, mm := range g.Members {
		if mm.UserID != memberID {
			kept = append(kept, mm)
		}
	}
	g.Members = kept
	for _, t := range s.tasks {
		if t.GroupID != nil && *t.GroupID == id {
			t.assignees = without(t.assignees, memberID)
		}
	}
	return nil
}

func without(ids []uint, drop uint) []uint {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

// Invitations lists the pending memberships of userID.
func (s *Store) Invitations(userID uint) []models.Invitation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Invitation{}
	for _, g := range s.groups {
		if m := g.Member(userID); m != nil && !m.Accepted {
			out = append(out, models.Invitation{
				GroupID:     g.ID,
				GroupName:   g.Name,
				Description: g.Description,
				Role:        m.Role,
				InvitedAt:   g.CreatedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// AcceptInvitation flips the caller's own pending membership.
func (s *Store) AcceptInvitation(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return utils.NotFound("group")
	}
	m := g.Member(userID)
	if m == nil || m.Accepted {
		return utils.NotFound("invitation")
	}
	m.Accepted = true
	return nil
}

// CreateGroupTask assigns a task to in.UserIDs, or to every accepted member when empty.
func (s *Store) CreateGroupTask(groupID, userID uint, in models.GroupTaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, utils.BadRequest("title is required")
	}
	if err := validateSchedule(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.adminGroup(groupID, userID)
	if err != nil {
		return nil, err
	}
	var assignees []uint
	if len(in.UserIDs) == 0 {
		for _, m := range g.Members {
			if m.Accepted {
				assignees = append(assignees, m.UserID)
			}
		}
	} else {
		for _, id := range in.UserIDs {
			if m := g.Member(id); m == nil || !m.Accepted {
				return nil, utils.BadRequest("can only assign accepted members")
			}
			assignees = append(assignees, id)
		}
	}
	now := s.now().UTC()
	gid := g.ID
	t := &taskRecord{
		Task: models.Task{
			ID:          s.id(),
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Status:      models.StatusPending,
			IsGroupTask: true,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			DueDate:     in.DueDate,
			CreatorID:   userID,
			GroupID:     &gid,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		assignees: assignees,
	}
	s.tasks[t.ID] = t
	for _, id := range assignees {
		if id != userID {
			s.notifyLocked(id, "New group task", t.Title+" was assigned to you in "+g.Name, notifyTaskAssigned, t.ID)
		}
	}
	v := s.view(t)
	return &v, nil
}

// ===== Files =====

func (s *Store) Files(taskID, userID uint) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.visibleTask(taskID, userID); err != nil {
		return nil, err
	}
	out := []models.File{}
	for _, f := range s.files {
		if f.TaskID == taskID {
			out = append(out, f.File)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddFile(taskID, userID uint, filename, mimeType, notes string, content []byte) (*models.File, error) {
	if filename == "" {
		return nil, utils.BadRequest("file is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.visibleTask(taskID, userID); err != nil {
		return nil, err
	}
	f := &fileRecord{
		File: models.File{
			ID:         s.id(),
			TaskID:     taskID,
			Filename:   filename,
			Size:       int64(len(content)),
			MimeType:   mimeType,
			UploaderID: userID,
			Notes:      notes,
			UploadedAt: s.now().UTC(),
		},
		key:     uuid.NewString(),
		content: content,
	}
	s.files[f.ID] = f
	out := f.File
	return &out, nil
}

// Download is a stored file ready to be served. Key is stable for the file's lifetime.
type Download struct {
	File    models.File
	Key     string
	Content []byte
}

func (s *Store) FileContent(id, userID uint) (*Download, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, utils.NotFound("file")
	}
	if _, err := s.visibleTask(f.TaskID, userID); err != nil {
		return nil, err
	}
	return &Download{File: f.File, Key: f.key, Content: f.content}, nil
}

// DeleteFile removes a file. Uploader or task creator only.
func (s *Store) DeleteFile(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return utils.NotFound("file")
	}
	t := s.tasks[f.TaskID]
	var task *models.Task
	if t != nil {
		task = &t.Task
	}
	if !f.CanDelete(userID, task) {
		return utils.Forbidden("only the uploader or the task creator can delete this file")
	}
	delete(s.files, id)
	return nil
}

// ===== Notifications =====

func (s *Store) notifyLocked(userID uint, title, message, kind string, relatedID uint) {
	n := &notificationRecord{
		Notification: models.Notification{
			ID:        s.id(),
			Title:     title,
			Message:   message,
			Type:      kind,
			RelatedID: relatedID,
			CreatedAt: s.now().UTC(),
		},
		userID: userID,
	}
	s.notifications[n.ID] = n
}

// Notifications lists userID's notifications, newest first.
func (s *Store) Notifications(userID uint) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.userID == userID {
			out = append(out, n.Notification)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) ownNotification(id, userID uint) (*notificationRecord, error) {
	n, ok := s.notifications[id]
	if !ok || n.userID != userID {
		return nil, utils.NotFound("notification")
	}
	return n, nil
}

func (s *Store) MarkRead(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.ownNotification(id, userID)
	if err != nil {
		return err
	}
	n.IsRead = true
	return nil
}

func (s *Store) DeleteNotification(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownNotification(id, userID); err != nil {
		return err
	}
	delete(s.notifications, id)
	return nil
}

// ===== Analytics =====

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// recordCompletion extends userID's streak by today.
func (s *Store) recordCompletion(userID uint) {
	today := day(s.now())
	st, ok := s.streaks[userID]
	if !ok {
		st = &streakRecord{}
		s.streaks[userID] = st
	}
	switch {
	case st.last.Equal(today):
		return
	case st.last.Equal(today.AddDate(0, 0, -1)):
		st.current++
	default:
		st.current = 1
	}
	st.last = today
	if st.current > st.longest {
		st.longest = st.current
	}
}

func (s *Store) streakLocked(userID uint) models.Streak {
	st, ok := s.streaks[userID]
	if !ok {
		return models.Streak{}
	}
	cur := st.current
	if st.last.Before(day(s.now()).AddDate(0, 0, -1)) {
		cur = 0
	}
	return models.Streak{CurrentStreak: cur, LongestStreak: st.longest}
}

func (s *Store) Streak(userID uint) models.Streak {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streakLocked(userID)
}

// Summary counts personal tasks by status plus group activity.
func (s *Store) Summary(userID uint) models.AnalyticsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum models.AnalyticsSummary
	for _, t := range s.tasks {
		if t.IsGroupTask {
			if isAssignee(t, userID) {
				sum.GroupTaskCount++
			}
			continue
		}
		if t.CreatorID != userID {
			continue
		}
		sum.TotalTasks++
		switch s.view(t).Status {
		case models.StatusCompleted:
			sum.CompletedTasks++
		case models.StatusPending:
			sum.PendingTasks++
		case models.StatusInProgress:
			sum.InProgressTasks++
		}
	}
	if sum.TotalTasks > 0 {
		sum.CompletionRate = float64(sum.CompletedTasks) / float64(sum.TotalTasks) * 100
	}
	for _, g := range s.groups {
		if m := g.Member(userID); m != nil && m.Accepted {
			sum.GroupCount++
		}
	}
	sum.Streak = s.streakLocked(userID)
	return sum
}
