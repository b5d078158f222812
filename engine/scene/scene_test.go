package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func closeTo(a, b float32) bool {
	return mgl32.Abs(a-b) <= eps
}

// testModel has one root node with a 2x2x2 mesh and two animations moving it along X.
func testModel() (model.Model, *model.Node) {
	root := model.NewNode(0, "root")
	root.Mesh = &model.Mesh{Primitives: []*model.Primitive{{
		Bounds: model.Bounds{}.Extend(mgl32.Vec3{0, 0, 0}).Extend(mgl32.Vec3{2, 2, 2}),
	}}}

	slide := &model.Animation{
		Name:  "slide",
		Start: 1,
		End:   3,
		Samplers: []*model.AnimationSampler{{
			Inputs:  []float32{1, 3},
			Outputs: []mgl32.Vec4{{0, 0, 0, 0}, {2, 0, 0, 0}},
		}},
		Channels: []*model.AnimationChannel{{Path: model.PathTranslation, Node: root}},
	}
	still := &model.Animation{Name: "still"}

	m := model.NewModel(
		model.WithRoots([]*model.Node{root}),
		model.WithNodes(map[int]*model.Node{0: root}),
		model.WithAnimations([]*model.Animation{slide, still}),
	)
	return m, root
}

func TestNewSceneStartsFirstAnimationAndFrames(t *testing.T) {
	m, _ := testModel()
	s := NewScene(WithModel(m), WithName("fox"))

	if s.Name() != "fox" {
		t.Errorf("name = %q", s.Name())
	}
	if s.Animation() != 0 {
		t.Errorf("animation = %d, want 0", s.Animation())
	}
	if s.PlaybackTime() != 1 {
		t.Errorf("time = %v, want the animation start", s.PlaybackTime())
	}
	target := s.Camera().Controller().Target()
	if !target.ApproxFuncEqual(mgl32.Vec3{1, 1, 1}, closeTo) {
		t.Errorf("camera target = %v, want the bounds center", target)
	}
	if s.Light() == nil {
		t.Error("expected a default light")
	}
}

func TestUpdateAdvancesAndWraps(t *testing.T) {
	m, root := testModel()
	s := NewScene(WithModel(m))

	if err := s.Update(0.5); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.PlaybackTime() != 1.5 {
		t.Errorf("time = %v, want 1.5", s.PlaybackTime())
	}
	if mgl32.Abs(root.Translation.X()-0.5) > eps {
		t.Errorf("translation = %v", root.Translation)
	}
	if mgl32.Abs(root.Mesh.Uniform.Matrix.At(0, 3)-0.5) > eps {
		t.Error("mesh matrix was not refreshed")
	}

	_ = s.Update(2)
	if s.PlaybackTime() != 1.5 {
		t.Errorf("time = %v, want wrapped 1.5", s.PlaybackTime())
	}

	s.SetSpeed(-1)
	_ = s.Update(1)
	if s.PlaybackTime() != 2.5 {
		t.Errorf("time = %v, want 2.5 when playing backwards", s.PlaybackTime())
	}
	if s.Speed() != -1 {
		t.Errorf("speed = %v", s.Speed())
	}
}

func TestPauseAndReset(t *testing.T) {
	m, _ := testModel()
	s := NewScene(WithModel(m))
	_ = s.Update(0.5)

	s.SetPaused(true)
	if !s.Paused() {
		t.Fatal("expected paused")
	}
	_ = s.Update(1)
	if s.PlaybackTime() != 1.5 {
		t.Errorf("paused time moved to %v", s.PlaybackTime())
	}

	s.ResetPlayback()
	if s.PlaybackTime() != 1 {
		t.Errorf("time after reset = %v", s.PlaybackTime())
	}
	_ = s.Update(1)
	if s.PlaybackTime() != 1 {
		t.Errorf("paused reset should apply the start pose without advancing, got %v", s.PlaybackTime())
	}
}

func TestAnimationSelection(t *testing.T) {
	m, _ := testModel()
	s := NewScene(WithModel(m))

	if err := s.SetAnimation(2); err == nil {
		t.Error("expected an out of range error")
	}
	if err := s.SetAnimation(1); err != nil || s.Animation() != 1 {
		t.Errorf("SetAnimation(1) = %v, animation %d", err, s.Animation())
	}

	s.NextAnimation()
	if s.Animation() != 0 {
		t.Errorf("next should wrap to 0, got %d", s.Animation())
	}
	s.PreviousAnimation()
	if s.Animation() != 1 {
		t.Errorf("previous should wrap to 1, got %d", s.Animation())
	}

	if err := s.SetAnimation(NoAnimation); err != nil {
		t.Fatalf("SetAnimation(NoAnimation): %v", err)
	}
	s.PreviousAnimation()
	if s.Animation() != 1 {
		t.Errorf("previous from no animation should select the last, got %d", s.Animation())
	}

	// A zero-length animation stays pinned at its start.
	_ = s.Update(5)
	if s.PlaybackTime() != 0 {
		t.Errorf("time = %v", s.PlaybackTime())
	}
}

func TestSceneWithoutModel(t *testing.T) {
	s := NewScene()
	if s.Model() != nil || s.Animation() != NoAnimation {
		t.Fatal("expected an empty scene")
	}
	s.NextAnimation()
	s.FrameModel()
	s.ResetPlayback()
	s.Draw(nil)
	if err := s.Update(1); err != nil {
		t.Errorf("Update: %v", err)
	}
	if err := s.SetAnimation(0); err == nil {
		t.Error("expected an error without a model")
	}

	m, _ := testModel()
	s.SetModel(m)
	if s.Model() != m || s.Animation() != 0 {
		t.Error("SetModel did not start playback")
	}
}

func TestWrapTime(t *testing.T) {
	tests := []struct {
		t, start, duration, want float32
	}{
		{t: 1.5, start: 1, duration: 2, want: 1.5},
		{t: 3, start: 1, duration: 2, want: 1},
		{t: 7.5, start: 1, duration: 2, want: 1.5},
		{t: 0.5, start: 1, duration: 2, want: 2.5},
		{t: 4, start: 1, duration: 0, want: 1},
	}
	for _, tt := range tests {
		if got := wrapTime(tt.t, tt.start, tt.duration); mgl32.Abs(got-tt.want) > eps {
			t.Errorf("wrapTime(%v, %v, %v) = %v, want %v", tt.t, tt.start, tt.duration, got, tt.want)
		}
	}
}
