package events

import "testing"

func TestFilterTypes_Nil(t *testing.T) {
	if FilterTypes(nil) != nil {
		t.Error("FilterTypes(nil) should return nil")
	}
	if FilterTypes([]string{}) != nil {
		t.Error("FilterTypes([]) should return nil")
	}
}

func TestFilterTypes_Match(t *testing.T) {
	f := FilterTypes([]string{TypeStackChanged, TypePlayerUpdated})
	if f == nil {
		t.Fatal("expected non-nil filter")
	}
	if !f(Event{Type: TypeStackChanged}) {
		t.Errorf("filter should pass %s", TypeStackChanged)
	}
	if !f(Event{Type: TypePlayerUpdated}) {
		t.Errorf("filter should pass %s", TypePlayerUpdated)
	}
	if f(Event{Type: TypePlayerChanged}) {
		t.Errorf("filter should block %s", TypePlayerChanged)
	}
}

func TestFilterBackend_Unknown(t *testing.T) {
	if FilterBackend([]string{"unknown"}) != nil {
		t.Error("FilterBackend with unknown names should return nil (pass-all)")
	}
	if FilterBackend(nil) != nil {
		t.Error("FilterBackend(nil) should return nil")
	}
}

func TestFilterBackend_MPRIS(t *testing.T) {
	f := FilterBackend([]string{"mpris"})
	if f == nil {
		t.Fatal("expected non-nil filter for mpris")
	}
	for _, typ := range BackendTypes["mpris"] {
		if !f(Event{Type: typ}) {
			t.Errorf("mpris filter should pass %s", typ)
		}
	}
	if f(Event{Type: TypeStackChanged}) {
		t.Error("mpris filter should block stack.changed")
	}
}

func TestFilterBackend_Multi(t *testing.T) {
	f := FilterBackend([]string{"mpris", "registry"})
	for _, types := range BackendTypes {
		for _, typ := range types {
			if !f(Event{Type: typ}) {
				t.Errorf("combined filter should pass %s", typ)
			}
		}
	}
}
