package models

import "testing"

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := CompletionRate(tt.completed, tt.total); got != tt.want {
			t.Errorf("CompletionRate(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestComputeTaskStatsIgnoresGroupTasks(t *testing.T) {
	tasks := []Task{
		{Status: StatusCompleted},
		{Status: StatusPending},
		{Status: StatusInProgress},
		{Status: StatusExpired},
		{Status: StatusCompleted, IsGroupTask: true},
	}
	st := ComputeTaskStats(tasks)
	want := TaskStats{Total: 4, Completed: 1, Pending: 1, InProgress: 1, Expired: 1, CompletionRate: 25}
	if st != want {
		t.Fatalf("ComputeTaskStats() = %+v, want %+v", st, want)
	}
}

func TestGroupMembership(t *testing.T) {
	g := Group{Members: []Member{
		{UserID: 1, Role: RoleAdmin, Accepted: true},
		{UserID: 2, Role: RoleMember},
	}}
	if !g.HasMember(2) || g.HasMember(3) {
		t.Fatalf("HasMember wrong")
	}
	if !g.IsAdmin(1) || g.IsAdmin(2) {
		t.Fatalf("IsAdmin wrong")
	}
}

func TestFileCanDelete(t *testing.T) {
	task := &Task{CreatorID: 1}
	f := &File{UploaderID: 2}
	if !f.CanDelete(2, task) || !f.CanDelete(1, task) || f.CanDelete(3, task) || f.CanDelete(3, nil) {
		t.Fatalf("CanDelete wrong")
	}
}
