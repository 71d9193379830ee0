package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

type recorded struct {
	method, path, query string
	body                []byte
	form                map[string]string
	fileName, fileData  string
}

func recordingClient(t *testing.T, data string) (*client.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				rec.form = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					rec.form[k] = v[0]
				}
				if f, hdr, err := r.FormFile("file"); err == nil {
					b, _ := io.ReadAll(f)
					rec.fileName, rec.fileData = hdr.Filename, string(b)
				}
			}
		} else {
			rec.body, _ = io.ReadAll(r.Body)
		}
		calls = append(calls, rec)
		io.WriteString(w, `{"success":true,"data":`+data+`}`)
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/api"), &calls
}

func TestProgressRouteSelection(t *testing.T) {
	c, calls := recordingClient(t, `{"progress":10}`)
	s := NewTasks(c)
	ctx := context.Background()

	personal := &models.Task{ID: 4}
	group := &models.Task{ID: 5, IsGroupTask: true}
	s.MyProgress(ctx, personal)
	s.MyProgress(ctx, group)
	s.UpdateProgress(ctx, group, 30, "n")
	s.GroupProgress(ctx, 5)

	want := []string{
		"GET /api/tasks/4/progress",
		"GET /api/tasks/5/my-progress",
		"PUT /api/tasks/5/my-progress",
		"GET /api/tasks/5/progress",
	}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %+v", *calls)
	}
	for i, w := range want {
		if got := (*calls)[i].method + " " + (*calls)[i].path; got != w {
			t.Errorf("call %d = %s, want %s", i, got, w)
		}
	}
	var in models.ProgressInput
	json.Unmarshal((*calls)[2].body, &in)
	if in.Progress != 30 || in.Notes != "n" {
		t.Errorf("progress body = %+v", in)
	}
}

func TestUploadFileMultipartFields(t *testing.T) {
	c, calls := recordingClient(t, `{"id":1,"filename":"a.txt"}`)
	f, err := NewTasks(c).UploadFile(context.Background(), 12, "a.txt", strings.NewReader("data"), "first draft")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if f.Filename != "a.txt" {
		t.Fatalf("decoded %+v", f)
	}
	got := (*calls)[0]
	if got.path != "/api/files/upload" || got.form["task_id"] != "12" || got.form["notes"] != "first draft" {
		t.Fatalf("upload = %+v", got)
	}
	if got.fileName != "a.txt" || got.fileData != "data" {
		t.Fatalf("file part = %q %q", got.fileName, got.fileData)
	}
}

func TestSearchEncodesQuery(t *testing.T) {
	c, calls := recordingClient(t, `[]`)
	NewAuth(c).SearchUsers(context.Background(), "a&b c")
	NewGroups(c).Search(context.Background(), "x/y")
	if q := (*calls)[0].query; q != "q=a%26b+c" {
		t.Errorf("user search query = %q", q)
	}
	if q := (*calls)[1].query; q != "q=x%2Fy" {
		t.Errorf("group search query = %q", q)
	}
}

func TestCreateGroupSendsEmptyMemberList(t *testing.T) {
	c, calls := recordingClient(t, `{"id":1}`)
	NewGroups(c).Create(context.Background(), "team", "", nil)
	var in map[string]any
	json.Unmarshal((*calls)[0].body, &in)
	if ids, ok := in["user_ids"].([]any); !ok || len(ids) != 0 {
		t.Fatalf("user_ids = %#v", in["user_ids"])
	}
}
