package catalog

import "testing"

func sample() []Entity {
	return []Entity{
		{ID: 1, Title: "Iron Man", ReleaseDate: "May 2, 2008", Franchise: "MCU"},
		{ID: 2, Title: "Blade", ReleaseDate: "upcoming", Franchise: "MCU"},
		{ID: 3, Title: "X-Men", ReleaseDate: "July 14, 2000", Franchise: "X-Men"},
		{ID: 4, Title: "Avengers", ReleaseDate: "May 4, 2012", Franchise: "MCU"},
	}
}

func ids(entities []Entity) []int {
	out := make([]int, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListSortOrders(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []int
	}{
		{SortReleaseDate, []int{3, 1, 4, 2}},
		{SortOldest, []int{3, 1, 4, 2}},
		{SortNewest, []int{2, 4, 1, 3}},
		{SortTitle, []int{4, 2, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := ids(List(sample(), Query{Sort: tt.order}))
			if !equalInts(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	got := ids(List(sample(), Query{Franchise: "MCU", Search: "AV"}))
	if !equalInts(got, []int{4}) {
		t.Fatalf("unexpected filter result %v", got)
	}
	got = ids(List(sample(), Query{Franchise: "all"}))
	if len(got) != 4 {
		t.Fatalf("franchise all should match everything, got %v", got)
	}
}

func TestListDoesNotMutateInput(t *testing.T) {
	in := sample()
	List(in, Query{Sort: SortTitle})
	if !equalInts(ids(in), []int{1, 2, 3, 4}) {
		t.Fatalf("input reordered: %v", ids(in))
	}
}

func TestParseSortOrder(t *testing.T) {
	if got, err := ParseSortOrder(""); err != nil || got != SortReleaseDate {
		t.Fatalf("empty sort: %v %v", got, err)
	}
	if got, err := ParseSortOrder("Newest"); err != nil || got != SortNewest {
		t.Fatalf("newest sort: %v %v", got, err)
	}
	if _, err := ParseSortOrder("random"); err == nil {
		t.Fatal("expected error for unknown sort")
	}
}

func TestFranchises(t *testing.T) {
	got := Franchises(Builtin())
	want := []string{"Fantastic Four (Fox)", "Marvel Cinematic Universe", "Sony's Universe", "Spider-Man (Sony)", "Spider-Verse Saga", "X-Men"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
