package types

import "testing"

func TestCanonicalLabels(t *testing.T) {
	labels := CanonicalLabels()

	if len(labels) != 10 {
		t.Fatalf("expected 10 canonical labels, got %d", len(labels))
	}

	if labels[0] != Kitchen {
		t.Errorf("expected KITCHEN first in canonical order, got %s", labels[0])
	}

	if labels[len(labels)-1] != Other {
		t.Errorf("expected OTHER last in canonical order, got %s", labels[len(labels)-1])
	}

	// Mutating the returned slice must not affect the canonical order.
	labels[0] = Other
	if CanonicalLabels()[0] != Kitchen {
		t.Error("CanonicalLabels returned a shared slice")
	}
}

func TestSceneLabels(t *testing.T) {
	labels := SceneLabels()

	if len(labels) != 9 {
		t.Fatalf("expected 9 scene labels, got %d", len(labels))
	}

	for _, l := range labels {
		if l == Other {
			t.Error("OTHER must not be a scene label")
		}
	}

	// Scene order must follow canonical order.
	if labels[0] != Kitchen || labels[len(labels)-1] != Bathroom {
		t.Errorf("scene labels out of canonical order: first=%s last=%s", labels[0], labels[len(labels)-1])
	}
}

func TestParseRoomLabel(t *testing.T) {
	tests := []struct {
		in   string
		want RoomLabel
		ok   bool
	}{
		{"KITCHEN", Kitchen, true},
		{"kitchen", Kitchen, true},
		{"  living room \n", LivingRoom, true},
		{"Laundry Room", LaundryRoom, true},
		{"OTHER", Other, true},
		{"garage", Other, false},
		{"", Other, false},
	}

	for _, tc := range tests {
		got, ok := ParseRoomLabel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRoomLabel(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRoomLabelValid(t *testing.T) {
	for _, l := range CanonicalLabels() {
		if !l.Valid() {
			t.Errorf("canonical label %s reported invalid", l)
		}
	}

	if RoomLabel("HALLWAY").Valid() {
		t.Error("HALLWAY should not be a valid label")
	}

	if RoomLabel("bedroom").Valid() {
		t.Error("labels are case sensitive; lowercase should be invalid")
	}
}

func TestObjectDetectionPresence(t *testing.T) {
	det := ObjectDetection{"bed": 0.9, "chair": 0.6}

	if !det.Has("bed") {
		t.Error("bed should be present")
	}
	if det.Has("toilet") {
		t.Error("toilet should be absent")
	}

	if !det.HasAny("toilet", "chair") {
		t.Error("HasAny should find chair")
	}
	if det.HasAny("toilet", "shower") {
		t.Error("HasAny found an object that is absent")
	}

	if !det.HasAll("bed", "chair") {
		t.Error("HasAll should hold for bed+chair")
	}
	if det.HasAll("bed", "toilet") {
		t.Error("HasAll should fail when toilet is absent")
	}

	var empty ObjectDetection
	if empty.Has("bed") || empty.HasAny("bed") {
		t.Error("nil detection should report nothing present")
	}
	if !empty.HasAll() {
		t.Error("HasAll with no arguments should hold vacuously")
	}
}

func TestInferenceError(t *testing.T) {
	inner := &InferenceError{Op: "detect objects", Err: errSentinel}

	if inner.Unwrap() != errSentinel {
		t.Error("Unwrap should return the inner error")
	}

	msg := inner.Error()
	if msg == "" || msg == "inference failed" {
		t.Errorf("unexpected error text: %q", msg)
	}
}

type sentinelError struct{}

func (sentinelError) Error() string { return "boom" }

var errSentinel = sentinelError{}
