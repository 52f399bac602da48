package game

import "testing"

func TestDirectoryLookup(t *testing.T) {
	d := NewDirectory()

	if _, ok := d.Lookup("c1"); ok {
		t.Fatal("empty directory resolved a connection")
	}

	d.Add("c1", Membership{Pin: "123456", Role: RoleHost})
	d.Add("c2", Membership{Pin: "123456", PlayerID: "p1", Role: RolePlayer})

	m, ok := d.Lookup("c2")
	if !ok || m.Role != RolePlayer || m.PlayerID != "p1" {
		t.Fatalf("unexpected membership: %+v ok=%v", m, ok)
	}
}

func TestDirectoryRemove(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", Membership{Pin: "123456", Role: RoleHost})

	d.Remove("c1")
	if _, ok := d.Lookup("c1"); ok {
		t.Fatal("removed connection still resolves")
	}
	// removing again is a no-op
	d.Remove("c1")
}

func TestDirectoryRemoveSession(t *testing.T) {
	d := NewDirectory()
	d.Add("h", Membership{Pin: "111111", Role: RoleHost})
	d.Add("p1", Membership{Pin: "111111", PlayerID: "a", Role: RolePlayer})
	d.Add("p2", Membership{Pin: "222222", PlayerID: "b", Role: RolePlayer})

	d.RemoveSession("111111")

	if _, ok := d.Lookup("h"); ok {
		t.Fatal("host binding survived session removal")
	}
	if _, ok := d.Lookup("p1"); ok {
		t.Fatal("player binding survived session removal")
	}
	if _, ok := d.Lookup("p2"); !ok {
		t.Fatal("unrelated session's binding was removed")
	}
}
