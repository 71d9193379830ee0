package views

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amingeek/task-manager/internal/api"
	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
	"github.com/amingeek/task-manager/internal/services"
)

type backend struct {
	store    *api.Store
	tokens   *api.TokenIssuer
	url      string
	requests atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		store:  api.NewStore(),
		tokens: api.NewTokenIssuer([]byte("views-test-secret"), time.Hour),
	}
	router := api.NewRouter(api.NewServer(b.store, b.tokens, nil))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	b.url = srv.URL + "/api"
	return b
}

// clientFor returns a client authenticated as a freshly created user.
func (b *backend) clientFor(t *testing.T, username string) (*client.Client, *models.User) {
	t.Helper()
	u, err := b.store.CreateUser(username, username+"@example.com", "pass1234")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok, err := b.tokens.Issue(u.ID, u.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return client.New(b.url, client.WithTokenSource(client.TokenFunc(func() string { return tok }))), u
}

func TestDashboardCreateAndStats(t *testing.T) {
	b := newBackend(t)
	c, _ := b.clientFor(t, "alice")
	d := NewDashboard(services.NewTasks(c), services.NewGroups(c), nil)
	ctx := context.Background()

	if err := d.CreateTask(ctx, models.TaskInput{Title: "  "}); client.KindOf(err) != client.KindValidation {
		t.Fatalf("blank title: %v", err)
	}
	for _, title := range []string{"a", "b", "c"} {
		if err := d.CreateTask(ctx, models.TaskInput{Title: title}); err != nil {
			t.Fatalf("CreateTask(%s): %v", title, err)
		}
	}
	tasks := d.Tasks.Get()
	if len(tasks) != 3 {
		t.Fatalf("tasks after create = %d", len(tasks))
	}
	if err := d.SetStatus(ctx, tasks[0].ID, models.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	st := d.Stats()
	if st.Total != 3 || st.Completed != 1 || st.CompletionRate != 33 {
		t.Fatalf("stats = %+v", st)
	}
	if err := d.SetStatus(ctx, tasks[0].ID, models.StatusExpired); client.KindOf(err) != client.KindValidation {
		t.Fatalf("expired accepted: %v", err)
	}
	if err := d.DeleteTask(ctx, tasks[1].ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if len(d.Tasks.Get()) != 2 {
		t.Fatalf("tasks after delete = %d", len(d.Tasks.Get()))
	}
}

func TestDashboardMutationErrorLeavesList(t *testing.T) {
	b := newBackend(t)
	c, _ := b.clientFor(t, "alice")
	d := NewDashboard(services.NewTasks(c), services.NewGroups(c), nil)
	ctx := context.Background()
	d.CreateTask(ctx, models.TaskInput{Title: "keep"})

	err := d.DeleteTask(ctx, 9999)
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("DeleteTask(missing) = %v", err)
	}
	if len(d.Tasks.Get()) != 1 {
		t.Fatalf("list changed after failed mutation")
	}
	if d.Pending() {
		t.Fatalf("pending flag left raised")
	}
}

func setupGroup(t *testing.T, b *backend) (admin *client.Client, adminUser, bob, carol *models.User, g *models.Group) {
	t.Helper()
	admin, adminUser = b.clientFor(t, "admin")
	_, bob = b.clientFor(t, "bob")
	_, carol = b.clientFor(t, "carol")
	g, err := b.store.CreateGroup(adminUser.ID, models.GroupInput{Name: "team", UserIDs: []uint{bob.ID, carol.ID}})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return admin, adminUser, bob, carol, g
}

type recordingNav struct{ replaced []string }

func (n *recordingNav) Push(string)          {}
func (n *recordingNav) Replace(route string) { n.replaced = append(n.replaced, route) }

func TestGroupSettingsRejectsExistingMemberLocally(t *testing.T) {
	b := newBackend(t)
	admin, _, bob, _, g := setupGroup(t, b)
	s := NewGroupSettings(g.ID, services.NewGroups(admin), services.NewAuth(admin), nil, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	before := b.requests.Load()
	if err := s.AddMember(context.Background(), bob.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("AddMember(existing) = %v", err)
	}
	if b.requests.Load() != before {
		t.Fatalf("request sent for an existing member")
	}
	if Message(ErrAlreadyMember) == GenericErrorMessage {
		t.Fatalf("no specific message for duplicate member")
	}
}

func TestGroupSettingsCandidatesExcludeMembers(t *testing.T) {
	b := newBackend(t)
	admin, _, _, _, g := setupGroup(t, b)
	b.clientFor(t, "bobby")
	s := NewGroupSettings(g.ID, services.NewGroups(admin), services.NewAuth(admin), nil, nil)
	ctx := context.Background()
	s.Load(ctx)

	if err := s.SearchCandidates(ctx, "bob"); err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	got := s.Candidates.Get()
	if len(got) != 1 || got[0].Username != "bobby" {
		t.Fatalf("candidates = %+v", got)
	}
}

func TestGroupSettingsRemoveMemberAndDelete(t *testing.T) {
	b := newBackend(t)
	admin, _, bob, carol, g := setupGroup(t, b)
	b.store.AcceptInvitation(g.ID, bob.ID)
	b.store.AcceptInvitation(g.ID, carol.ID)
	nav := &recordingNav{}
	s := NewGroupSettings(g.ID, services.NewGroups(admin), services.NewAuth(admin), nav, nil)
	ctx := context.Background()
	s.Load(ctx)

	if err := s.RemoveMember(ctx, carol.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if n := len(s.Group.Get().Members); n != 2 {
		t.Fatalf("members after remove = %d", n)
	}
	if err := s.CreateTask(ctx, models.GroupTaskInput{Title: "plan"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if n := len(s.Group.Get().Tasks); n != 1 {
		t.Fatalf("group tasks = %d", n)
	}
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(nav.replaced) != 1 || nav.replaced[0] != GroupsRoute {
		t.Fatalf("navigation = %v", nav.replaced)
	}
}

func TestInvitationsAcceptAndRejectLocally(t *testing.T) {
	b := newBackend(t)
	_, adminUser := b.clientFor(t, "admin")
	bobClient, bob := b.clientFor(t, "bob")
	g1, _ := b.store.CreateGroup(adminUser.ID, models.GroupInput{Name: "one", UserIDs: []uint{bob.ID}})
	g2, _ := b.store.CreateGroup(adminUser.ID, models.GroupInput{Name: "two", UserIDs: []uint{bob.ID}})

	v := NewInvitations(services.NewGroups(bobClient), nil)
	ctx := context.Background()
	v.Load(ctx)
	if len(v.List.Get()) != 2 {
		t.Fatalf("invitations = %+v", v.List.Get())
	}

	before := b.requests.Load()
	v.Reject(g2.ID)
	if b.requests.Load() != before {
		t.Fatalf("reject sent a request")
	}
	if len(v.List.Get()) != 1 {
		t.Fatalf("rejected invitation still shown")
	}

	if err := v.Accept(ctx, g1.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	// The reload shows what the server still holds, including the locally rejected one.
	if got := v.List.Get(); len(got) != 1 || got[0].GroupID != g2.ID {
		t.Fatalf("after accept = %+v", got)
	}
}

func TestTaskDetailPersonalProgressAndFiles(t *testing.T) {
	b := newBackend(t)
	c, u := b.clientFor(t, "alice")
	tasks := services.NewTasks(c)
	ctx := context.Background()
	task, err := tasks.Create(ctx, models.TaskInput{Title: "report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	d := NewTaskDetail(task.ID, tasks, func() uint { return u.ID }, nil)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.UpdateProgress(ctx, 101, ""); client.KindOf(err) != client.KindValidation {
		t.Fatalf("progress 101 accepted: %v", err)
	}
	if err := d.UpdateProgress(ctx, 40, "halfway"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if p := d.MyProgress.Get(); p == nil || p.Progress != 40 {
		t.Fatalf("my progress = %+v", p)
	}
	if d.Task.Get().Status != models.StatusInProgress {
		t.Fatalf("status = %s", d.Task.Get().Status)
	}

	if err := d.UploadFile(ctx, "notes.txt", strings.NewReader("hello"), "draft"); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	files := d.Files.Get()
	if len(files) != 1 || files[0].Filename != "notes.txt" || files[0].Size != 5 {
		t.Fatalf("files = %+v", files)
	}
	var buf bytes.Buffer
	if _, err := d.DownloadFile(ctx, files[0].ID, &buf); err != nil || buf.String() != "hello" {
		t.Fatalf("DownloadFile = %q, %v", buf.String(), err)
	}
	if err := d.DeleteFile(ctx, files[0].ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if len(d.Files.Get()) != 0 {
		t.Fatalf("file still listed")
	}
}

func TestTaskDetailGroupOverride(t *testing.T) {
	b := newBackend(t)
	admin, adminUser, bob, _, g := setupGroup(t, b)
	b.store.AcceptInvitation(g.ID, bob.ID)
	task, err := b.store.CreateGroupTask(g.ID, adminUser.ID, models.GroupTaskInput{Title: "ship", UserIDs: []uint{bob.ID}})
	if err != nil {
		t.Fatalf("CreateGroupTask: %v", err)
	}

	d := NewTaskDetail(task.ID, services.NewTasks(admin), func() uint { return adminUser.ID }, nil)
	ctx := context.Background()
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Roster.Get()) != 1 {
		t.Fatalf("roster = %+v", d.Roster.Get())
	}

	if err := d.SetMemberProgress(ctx, bob.ID, 60, ""); err != nil {
		t.Fatalf("SetMemberProgress(60): %v", err)
	}
	if p := d.Roster.Get()[0]; p.Progress != 60 || p.Approved {
		t.Fatalf("roster after 60 = %+v", p)
	}
	if err := d.SetMemberProgress(ctx, bob.ID, 100, "done"); err != nil {
		t.Fatalf("SetMemberProgress(100): %v", err)
	}
	if p := d.Roster.Get()[0]; p.Progress != 100 || !p.Approved {
		t.Fatalf("roster after 100 = %+v", p)
	}
}

func TestTaskDetailDeleteFileNeedsOwnership(t *testing.T) {
	b := newBackend(t)
	admin, adminUser, bob, _, g := setupGroup(t, b)
	b.store.AcceptInvitation(g.ID, bob.ID)
	task, _ := b.store.CreateGroupTask(g.ID, adminUser.ID, models.GroupTaskInput{Title: "ship", UserIDs: []uint{bob.ID}})
	if _, err := b.store.AddFile(task.ID, adminUser.ID, "spec.pdf", "application/pdf", "", []byte("%PDF")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	tok, _ := b.tokens.Issue(bob.ID, bob.Username)
	bobClient := client.New(b.url, client.WithTokenSource(client.TokenFunc(func() string { return tok })))
	d := NewTaskDetail(task.ID, services.NewTasks(bobClient), func() uint { return bob.ID }, nil)
	ctx := context.Background()
	d.Load(ctx)

	files := d.Files.Get()
	if len(files) != 1 {
		t.Fatalf("files = %+v", files)
	}
	before := b.requests.Load()
	if err := d.DeleteFile(ctx, files[0].ID); !errors.Is(err, ErrFileNotDeletable) {
		t.Fatalf("DeleteFile by non-owner = %v", err)
	}
	if b.requests.Load() != before {
		t.Fatalf("request sent for a file the user cannot delete")
	}
	_ = admin
}

func TestNotificationsMarkReadAndDelete(t *testing.T) {
	b := newBackend(t)
	_, adminUser := b.clientFor(t, "admin")
	bobClient, bob := b.clientFor(t, "bob")
	b.store.CreateGroup(adminUser.ID, models.GroupInput{Name: "team", UserIDs: []uint{bob.ID}})

	n := NewNotifications(services.NewNotifications(bobClient), nil)
	ctx := context.Background()
	n.Load(ctx)
	if n.Unread() != 1 {
		t.Fatalf("unread = %d", n.Unread())
	}
	id := n.List.Get()[0].ID
	if err := n.MarkRead(ctx, id); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n.Unread() != 0 {
		t.Fatalf("unread after mark = %d", n.Unread())
	}
	if err := n.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(n.List.Get()) != 0 {
		t.Fatalf("notification still listed")
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&client.Error{Kind: client.KindRequest, Status: 409, Message: "user is already a member of this group"}, "user is already a member of this group"},
		{&client.Error{Kind: client.KindServer, Status: 500}, GenericErrorMessage},
		{&client.Error{Kind: client.KindNetwork, Err: errBoom}, networkErrorMessage},
		{client.NewValidationError("title", "title is required"), "title is required"},
		{errBoom, GenericErrorMessage},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
