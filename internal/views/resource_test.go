package views

import (
	"context"
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func TestResourceBestEffortFallsBackToEmpty(t *testing.T) {
	fail := false
	r := NewResource("items", BestEffort, func(context.Context) ([]string, error) {
		if fail {
			return nil, errBoom
		}
		return []string{"a"}, nil
	})
	if err := r.Refresh(context.Background()); err != nil || len(r.Get()) != 1 {
		t.Fatalf("Refresh() = %v, %v", r.Get(), err)
	}
	fail = true
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("best effort Refresh() surfaced %v", err)
	}
	if len(r.Get()) != 0 || r.Err() != nil {
		t.Fatalf("value = %v, err = %v", r.Get(), r.Err())
	}
}

func TestResourceStrictKeepsValueAndError(t *testing.T) {
	fail := false
	r := NewResource("item", Strict, func(context.Context) (string, error) {
		if fail {
			return "", errBoom
		}
		return "v1", nil
	})
	r.Refresh(context.Background())
	fail = true
	if err := r.Refresh(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("Refresh() = %v", err)
	}
	if r.Get() != "v1" || !errors.Is(r.Err(), errBoom) {
		t.Fatalf("value = %q, err = %v", r.Get(), r.Err())
	}
}

func TestMutateFailureSkipsRefetch(t *testing.T) {
	fetches := 0
	r := NewResource("items", BestEffort, func(context.Context) (int, error) {
		fetches++
		return fetches, nil
	})
	r.Refresh(context.Background())

	err := Mutate(context.Background(), func(context.Context) error { return errBoom }, r)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Mutate() = %v", err)
	}
	if fetches != 1 || r.Get() != 1 {
		t.Fatalf("list touched after failed mutation: fetches=%d value=%d", fetches, r.Get())
	}
}

func TestMutateRefetchesAfterMutationInOrder(t *testing.T) {
	var order []string
	a := RefreshFunc(func(context.Context) error { order = append(order, "a"); return nil })
	b := RefreshFunc(func(context.Context) error { order = append(order, "b"); return nil })
	err := Mutate(context.Background(), func(context.Context) error {
		order = append(order, "mutation")
		return nil
	}, a, b)
	if err != nil {
		t.Fatalf("Mutate() = %v", err)
	}
	if len(order) != 3 || order[0] != "mutation" || order[1] != "a" || order[2] != "b" {
		t.Fatalf("order = %v", order)
	}
}

func TestMutateRefetchFailureKeepsStale(t *testing.T) {
	fail := false
	r := NewResource("items", BestEffort, func(context.Context) ([]int, error) {
		if fail {
			return nil, errBoom
		}
		return []int{1, 2}, nil
	})
	r.Refresh(context.Background())
	fail = true
	if err := Mutate(context.Background(), func(context.Context) error { return nil }, r); err != nil {
		t.Fatalf("Mutate() reported refetch failure: %v", err)
	}
	if len(r.Get()) != 2 {
		t.Fatalf("stale list dropped: %v", r.Get())
	}
}

func TestUnmountedResultsAreDiscarded(t *testing.T) {
	var l lifecycle
	l.init(nil)
	changes := 0
	l.OnChange(func() { changes++ })

	r := newResource(&l, "items", BestEffort, func(context.Context) (string, error) {
		l.Unmount() // unmounted while the request is in flight
		return "late", nil
	})
	r.Refresh(context.Background())
	if r.Get() != "" || r.Loaded() {
		t.Fatalf("late result applied: %q", r.Get())
	}
	if changes != 0 {
		t.Fatalf("re-render after unmount")
	}
}
