package cluster

import (
	"fmt"
	"testing"
)

func TestRing_ResponsibleNode_Deterministic(t *testing.T) {
	ring1 := NewRing(64)
	ring2 := NewRing(64)
	ring1.SetNodes([]string{"A", "B", "C"})
	ring2.SetNodes([]string{"C", "A", "B"})

	testKeys := []string{"key1", "key2", "key3", "key4", "key5", "key100", "key999"}
	for _, key := range testKeys {
		id1, found1 := ring1.ResponsibleNode(key)
		id2, found2 := ring2.ResponsibleNode(key)
		if !found1 || !found2 {
			t.Fatalf("Expected to find a responsible replica for %s", key)
		}
		if id1 != id2 {
			t.Errorf("Determinism failed for key %s: %s != %s", key, id1, id2)
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	ring := NewRing(128)
	ring.SetNodes([]string{"A", "B", "C"})

	distribution := make(map[string]int)
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		id, found := ring.ResponsibleNode(key)
		if !found {
			t.Fatalf("Expected to find replica for key %s", key)
		}
		distribution[id]++
	}

	if len(distribution) != 3 {
		t.Errorf("Expected 3 replicas to own keys, got %d", len(distribution))
	}

	// Sanity check: no replica owns more than 90% of keys
	for id, count := range distribution {
		percentage := float64(count) / float64(numKeys) * 100
		if percentage > 90 {
			t.Errorf("Replica %s has %.2f%% of keys (too high)", id, percentage)
		}
	}
}

func TestRing_RemoveNode(t *testing.T) {
	ring := NewRing(64)
	ring.SetNodes([]string{"A", "B", "C"})

	ring.RemoveNode("B")
	ring.RemoveNode("missing")

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key%d", i)
		id, found := ring.ResponsibleNode(key)
		if !found {
			t.Fatalf("Expected to find replica for key %s after removal", key)
		}
		if id == "B" {
			t.Errorf("Key %s still mapped to removed replica B", key)
		}
	}

	if fmt.Sprint(ring.Nodes()) != "[A C]" {
		t.Errorf("Expected [A C], got %v", ring.Nodes())
	}
}

func TestRing_AddNode_MatchesSetNodes(t *testing.T) {
	incremental := NewRing(64)
	incremental.SetNodes([]string{"A"})
	incremental.AddNode("B")
	incremental.AddNode("C")
	incremental.AddNode("B") // duplicate is ignored

	rebuilt := NewRing(64)
	rebuilt.SetNodes([]string{"A", "B", "C"})

	if incremental.Len() != 3 {
		t.Fatalf("Expected 3 replicas, got %d", incremental.Len())
	}

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("session-%d", i)
		got := incremental.PreferenceList(key, 3)
		want := rebuilt.PreferenceList(key, 3)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("Preference list for %s: incremental %v, rebuilt %v", key, got, want)
		}
	}
}

func TestRing_EmptyRing(t *testing.T) {
	ring := NewRing(64)
	id, found := ring.ResponsibleNode("any-key")
	if found {
		t.Error("Expected no replica found for empty ring")
	}
	if id != "" {
		t.Error("Expected empty ID for empty ring")
	}
	if len(ring.PreferenceList("any-key", 3)) != 0 {
		t.Error("Expected empty preference list for empty ring")
	}
}

func TestRing_PreferenceList(t *testing.T) {
	ring := NewRing(64)
	ring.SetNodes([]string{"A", "B", "C"})

	key := "test-key"
	prefList := ring.PreferenceList(key, 3)
	if len(prefList) != 3 {
		t.Fatalf("Expected preference list of length 3, got %d", len(prefList))
	}

	seen := make(map[string]bool)
	for _, id := range prefList {
		if seen[id] {
			t.Errorf("Duplicate replica %s in preference list", id)
		}
		seen[id] = true
	}

	// First entry should be the responsible replica
	responsible, _ := ring.ResponsibleNode(key)
	if prefList[0] != responsible {
		t.Errorf("First replica in preference list should be responsible: got %s, expected %s", prefList[0], responsible)
	}
}

func TestRing_PreferenceListPartial(t *testing.T) {
	ring := NewRing(64)
	ring.SetNodes([]string{"A", "B"})

	// Request more replicas than available
	prefList := ring.PreferenceList("key", 5)
	if len(prefList) != 2 {
		t.Errorf("Expected preference list of length 2 (only 2 replicas), got %d", len(prefList))
	}
	if len(ring.PreferenceList("key", 0)) != 0 {
		t.Error("Expected empty preference list for k=0")
	}
}
