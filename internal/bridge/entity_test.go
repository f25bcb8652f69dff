package bridge

import (
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Groceries", "groceries"},
		{"My Tasks", "my_tasks"},
		{"Home - Garden", "home_garden"},
		{"2024 Goals!", "2024_goals"},
		{"  padded  ", "padded"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("sensor.mstodo_groceries"); ok {
		t.Error("Get() on empty registry should miss")
	}
	if all := r.All(); len(all) != 0 {
		t.Errorf("All() on empty registry = %v", all)
	}

	r.Set(State{EntityID: "sensor.mstodo_groceries", State: "3", LastUpdated: time.Now()})
	r.Set(State{EntityID: "calendar.mstodo_groceries", State: "on"})
	r.Set(State{EntityID: "sensor.mstodo_groceries", State: "4"})

	st, ok := r.Get("sensor.mstodo_groceries")
	if !ok {
		t.Fatal("Get() missed a stored state")
	}
	if st.State != "4" {
		t.Errorf("State = %q, want replacement to win", st.State)
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d states, want 2", len(all))
	}
	if all[0].EntityID != "calendar.mstodo_groceries" || all[1].EntityID != "sensor.mstodo_groceries" {
		t.Errorf("All() not ordered by entity ID: %v", all)
	}
}
