package sound

import (
	"testing"

	"turretcode-go/errcode"
)

type fakePlayer struct {
	played []int
	busy   bool
	err    error
}

func (f *fakePlayer) Play(clip int) error {
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, clip)
	return nil
}

func (f *fakePlayer) Busy() bool { return f.busy }

func newFixed(p Player, idx int) *Trigger {
	t := NewTrigger(p)
	t.pick = func(n int) int { return idx % n }
	return t
}

func TestTriggerPlaysClipFromSet(t *testing.T) {
	p := &fakePlayer{}
	tr := newFixed(p, 0)

	if err := tr.Trigger(Fire); err != nil {
		t.Fatal(err)
	}
	if len(p.played) != 1 || p.played[0] != ClipSfxFire.FileIndex() {
		t.Fatalf("played = %v, want [%d]", p.played, ClipSfxFire.FileIndex())
	}
}

func TestTriggerPickSelectsWithinSet(t *testing.T) {
	set := clipSets[TargetAcquired]
	for i := range set {
		p := &fakePlayer{}
		tr := newFixed(p, i)
		if err := tr.Trigger(TargetAcquired); err != nil {
			t.Fatal(err)
		}
		if p.played[0] != set[i].FileIndex() {
			t.Fatalf("pick %d: played %d, want %d", i, p.played[0], set[i].FileIndex())
		}
	}
}

func TestTriggerBusyDropsSilently(t *testing.T) {
	p := &fakePlayer{busy: true}
	tr := newFixed(p, 0)

	if err := tr.Trigger(Fire); err != nil {
		t.Fatal(err)
	}
	if len(p.played) != 0 {
		t.Fatalf("busy player received %v", p.played)
	}
}

func TestTriggerUnknownSoundIsNoClip(t *testing.T) {
	tr := newFixed(&fakePlayer{}, 0)

	err := tr.Trigger(Sound(200))
	if !errcode.Is(err, errcode.NoClip) {
		t.Fatalf("err = %v, want no_clip", err)
	}
}

func TestTriggerMissingAssetBecomesNoClip(t *testing.T) {
	p := &fakePlayer{err: &errcode.E{C: errcode.NotFound, Op: "fs.open"}}
	tr := newFixed(p, 0)

	err := tr.Trigger(Fire)
	if !errcode.Is(err, errcode.NoClip) {
		t.Fatalf("err = %v, want no_clip", err)
	}
}

func TestEverySoundHasClips(t *testing.T) {
	for s := Sound(0); s < numSounds; s++ {
		if len(clipSets[s]) == 0 {
			t.Fatalf("sound %s has no clips", s)
		}
		for _, c := range clipSets[s] {
			if c >= NumClips {
				t.Fatalf("sound %s maps out-of-range clip %d", s, c)
			}
		}
	}
}
