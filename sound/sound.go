// Package sound maps logical turret events to stored clips and issues
// fire-and-forget playback requests. It never waits for playback; the
// PlaybackDone event closes the loop through the queue. A missing clip
// degrades the turret to silent operation, nothing more.
package sound

import (
	"math/rand/v2"

	"turretcode-go/errcode"
)

// Sound is a logical audio event.
type Sound uint8

const (
	Startup Sound = iota
	BeginScan
	TargetAcquired
	ContactLost
	ContactRestored
	TargetLost
	Fire
	PickedUp

	numSounds
)

func (s Sound) String() string {
	switch s {
	case Startup:
		return "startup"
	case BeginScan:
		return "begin_scan"
	case TargetAcquired:
		return "target_acquired"
	case ContactLost:
		return "contact_lost"
	case ContactRestored:
		return "contact_restored"
	case TargetLost:
		return "target_lost"
	case Fire:
		return "fire"
	case PickedUp:
		return "picked_up"
	default:
		return "unknown"
	}
}

// Clip identifies a stored file by its directory index in the clip
// image. The order matches the image build manifest.
type Clip uint8

const (
	ClipSfxDeploy Clip = iota
	ClipSfxActive
	ClipSearching
	ClipActivated
	ClipSentryModeActivated
	ClipCouldYouComeOverHere
	ClipDeploying
	ClipHelloFriend
	ClipWhoIsThere
	ClipTargetAcquired
	ClipGotcha
	ClipISeeYou
	ClipThereYouAre
	ClipSfxRetract
	ClipSfxPing
	ClipHi
	ClipSfxAlert
	ClipIsAnyoneThere
	ClipHellooooo
	ClipAreYouStillThere
	ClipTargetLost
	ClipSfxFire
	ClipMalfunctioning
	ClipPutMeDown
	ClipWhoAreYou
	ClipPleasePutMeDown

	NumClips
)

func (c Clip) FileIndex() int { return int(c) }

var clipNames = [NumClips]string{
	"sfx_deploy", "sfx_active", "searching", "activated",
	"sentry_mode_activated", "could_you_come_over_here", "deploying",
	"hello_friend", "who_is_there", "target_acquired", "gotcha",
	"i_see_you", "there_you_are", "sfx_retract", "sfx_ping", "hi",
	"sfx_alert", "is_anyone_there", "hellooooo", "are_you_still_there",
	"target_lost", "sfx_fire", "malfunctioning", "put_me_down",
	"who_are_you", "please_put_me_down",
}

func (c Clip) String() string {
	if c >= NumClips {
		return "unknown"
	}
	return clipNames[c]
}

// clipSets maps each logical sound to its candidate clips; one is
// picked at random per trigger so short sessions don't repeat.
var clipSets = [numSounds][]Clip{
	Startup:         {ClipSfxDeploy, ClipSfxActive},
	BeginScan:       {ClipSearching, ClipActivated, ClipSentryModeActivated, ClipCouldYouComeOverHere, ClipDeploying},
	TargetAcquired:  {ClipHelloFriend, ClipWhoIsThere, ClipTargetAcquired, ClipGotcha, ClipISeeYou, ClipThereYouAre},
	ContactLost:     {ClipSfxRetract},
	ContactRestored: {ClipSfxPing, ClipHi, ClipSfxAlert},
	TargetLost:      {ClipIsAnyoneThere, ClipHellooooo, ClipAreYouStillThere, ClipTargetLost},
	Fire:            {ClipSfxFire},
	PickedUp:        {ClipMalfunctioning, ClipPutMeDown, ClipWhoAreYou, ClipPleasePutMeDown},
}

// Player is the audio collaborator. Play must not block on playback.
type Player interface {
	Play(clip int) error
	Busy() bool
}

// Trigger issues playback requests for logical sounds.
type Trigger struct {
	p    Player
	pick func(n int) int
}

func NewTrigger(p Player) *Trigger {
	return &Trigger{p: p, pick: rand.IntN}
}

// Trigger requests playback for a logical event. NoClip when no clip is
// mapped or the store lacks the asset; a busy player drops the request
// silently. Both are non-fatal: the turret keeps operating without
// sound.
func (t *Trigger) Trigger(s Sound) error {
	if s >= numSounds || len(clipSets[s]) == 0 {
		return &errcode.E{C: errcode.NoClip, Op: "sound.trigger", Msg: s.String()}
	}
	if t.p.Busy() {
		println("[sound] player busy, dropping", s.String())
		return nil
	}

	set := clipSets[s]
	clip := set[t.pick(len(set))]

	if err := t.p.Play(clip.FileIndex()); err != nil {
		if errcode.Is(err, errcode.NotFound) {
			return errcode.Wrap(errcode.NoClip, "sound.trigger", err)
		}
		return err
	}
	return nil
}
