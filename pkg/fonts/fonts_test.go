package fonts

import "testing"

func TestFace(t *testing.T) {
	face, err := Face(DefaultSize)
	if err != nil {
		t.Fatalf("Face error: %v", err)
	}
	if face == nil {
		t.Fatal("Face returned nil")
	}

	// A face must report sane metrics for layout to work.
	m := face.Metrics()
	if m.Height <= 0 {
		t.Errorf("face height = %v, want > 0", m.Height)
	}
}

func TestFaceSizes(t *testing.T) {
	small, err := Face(8)
	if err != nil {
		t.Fatal(err)
	}
	large, err := Face(32)
	if err != nil {
		t.Fatal(err)
	}
	if small.Metrics().Height >= large.Metrics().Height {
		t.Error("larger point size should produce taller metrics")
	}
}
