package sound

import (
	"sync"

	"github.com/rs/zerolog"
)

// Mixer owns the three playback channels (music, sfx, voice-over) and their
// mute state. One mixer is shared by the director and every activity in turn.
//
// Completion is not event-driven: ebiten audio players are polled, so the
// game loop calls Update once per frame and the mixer reaps finished sfx,
// re-loops music, and advances the voice queue there.
type Mixer struct {
	mu  sync.Mutex
	log zerolog.Logger

	muteAll   bool
	muteMusic bool
	muteSfx   bool
	muteVoice bool

	music []*Clip
	sfx   []*Clip

	voice       *voiceState
	queue       []*Clip
	queueDone   chan struct{}
	voicePaused bool
}

// voiceState is the at-most-one active voice clip. The done channel fires
// exactly once, on natural completion; an interrupted clip's channel is
// abandoned unclosed so a stale waiter never observes a bogus completion.
type voiceState struct {
	clip *Clip
	done chan struct{}
}

func NewMixer(log zerolog.Logger) *Mixer {
	return &Mixer{log: log}
}

// PlayMusic starts a music clip and adds it to the active list. Prior music
// keeps playing; callers that want a swap stop it themselves.
func (m *Mixer) PlayMusic(clip *Clip, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clip == nil || clip.Player == nil {
		m.log.Warn().Msg("mixer: play music with no sound handle")
		return
	}
	clip.Loop = loop
	m.startLocked(clip, m.muteAll || m.muteMusic)
	m.music = append(m.music, clip)
}

// StopMusic stops and clears the entire active music list.
func (m *Mixer) StopMusic() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, clip := range m.music {
		stopClip(clip)
	}
	m.music = nil
}

// PlaySfx starts a one-shot effect. When stopOthers is set, or the channel
// is muted, every active effect is stopped first. A muted non-looping
// effect is suppressed entirely rather than started silently.
func (m *Mixer) PlaySfx(clip *Clip, stopOthers, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	muted := m.muteAll || m.muteSfx
	if stopOthers || muted {
		m.stopSfxLocked()
	}
	if clip == nil || clip.Player == nil {
		m.log.Warn().Msg("mixer: play sfx with no sound handle")
		return
	}
	if muted && !loop {
		return
	}
	clip.Loop = loop
	m.startLocked(clip, muted)
	m.sfx = append(m.sfx, clip)
}

// StopSfx stops every active one-shot and empties the set.
func (m *Mixer) StopSfx() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopSfxLocked()
}

// PlaySingleVO replaces whatever the voice channel is doing with one clip.
// The previous clip is stopped and its completion channel abandoned, so only
// the returned channel can fire. A missing handle logs and resolves
// immediately so sequenced callers keep advancing.
func (m *Mixer) PlaySingleVO(clip *Clip) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearQueueLocked()
	m.dropVoiceLocked()

	done := make(chan struct{})
	if clip == nil || clip.Player == nil {
		m.log.Warn().Msg("mixer: play voice with no sound handle")
		close(done)
		return done
	}
	m.voice = &voiceState{clip: clip, done: done}
	m.startVoiceLocked(clip)
	return done
}

// PlayVOClips replaces the voice queue and plays the clips strictly one
// after another. The returned channel closes once the queue has drained or
// been stopped. Entries are consumed from the front, so StopVO mid-sequence
// simply empties the remainder.
func (m *Mixer) PlayVOClips(clips []*Clip) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearQueueLocked()
	m.dropVoiceLocked()

	queue := make([]*Clip, 0, len(clips))
	for _, c := range clips {
		if c == nil || c.Player == nil {
			m.log.Warn().Msg("mixer: skipping voice entry with no sound handle")
			continue
		}
		queue = append(queue, c)
	}

	done := make(chan struct{})
	if len(queue) == 0 {
		close(done)
		return done
	}

	next := queue[0]
	m.queue = queue[1:]
	m.queueDone = done
	m.voice = &voiceState{clip: next, done: make(chan struct{})}
	m.startVoiceLocked(next)
	return done
}

// StopVO stops the current voice clip and empties the queue.
func (m *Mixer) StopVO() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearQueueLocked()
	m.dropVoiceLocked()
}

// StopAll silences every channel.
func (m *Mixer) StopAll() {
	m.StopMusic()
	m.StopSfx()
	m.StopVO()
}

// SetVOPaused pauses or resumes only the current voice clip. Music and sfx
// are untouched; activity-wide pausing handles those separately.
func (m *Mixer) SetVOPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.voicePaused = paused
	if m.voice == nil {
		return
	}
	if paused {
		m.voice.clip.Player.Pause()
	} else {
		m.voice.clip.Player.Play()
	}
}

func (m *Mixer) SetAllMute(mute bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteAll = mute
	m.applyMusicMuteLocked()
	m.applySfxMuteLocked()
	m.applyVoiceMuteLocked()
}

func (m *Mixer) SetMusicMute(mute bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteMusic = mute
	m.applyMusicMuteLocked()
}

func (m *Mixer) SetSfxMute(mute bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteSfx = mute
	m.applySfxMuteLocked()
}

func (m *Mixer) SetVOMute(mute bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteVoice = mute
	m.applyVoiceMuteLocked()
}

// Update is the per-frame completion sweep: finished one-shots leave the
// sfx set, looping clips rewind and restart, and a finished voice clip
// resolves its channel and pulls the next queued clip.
func (m *Mixer) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, clip := range m.music {
		if clip.Loop && !clip.Player.IsPlaying() {
			m.startLocked(clip, m.muteAll || m.muteMusic)
		}
	}

	kept := m.sfx[:0]
	for _, clip := range m.sfx {
		if clip.Player.IsPlaying() {
			kept = append(kept, clip)
			continue
		}
		if clip.Loop {
			m.startLocked(clip, m.muteAll || m.muteSfx)
			kept = append(kept, clip)
		}
	}
	m.sfx = kept

	if m.voice != nil && !m.voicePaused && !m.voice.clip.Player.IsPlaying() {
		close(m.voice.done)
		m.voice = nil
		m.advanceQueueLocked()
	}
}

// MusicCount reports how many clips the music channel is tracking.
func (m *Mixer) MusicCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.music)
}

// SfxCount reports how many one-shots are active.
func (m *Mixer) SfxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sfx)
}

// VoiceID returns the id of the current voice clip, or "" when the channel
// is idle.
func (m *Mixer) VoiceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voice == nil {
		return ""
	}
	return m.voice.clip.ID
}

func (m *Mixer) startLocked(clip *Clip, muted bool) {
	if muted {
		clip.Player.SetVolume(0)
	} else {
		clip.Player.SetVolume(clip.volume())
	}
	if err := clip.Player.Rewind(); err != nil {
		m.log.Warn().Err(err).Str("clip", clip.ID).Msg("mixer: rewind failed")
	}
	clip.Player.Play()
}

func (m *Mixer) startVoiceLocked(clip *Clip) {
	m.startLocked(clip, m.muteAll || m.muteVoice)
	if m.voicePaused {
		clip.Player.Pause()
	}
}

func (m *Mixer) advanceQueueLocked() {
	if len(m.queue) == 0 {
		if m.queueDone != nil {
			close(m.queueDone)
			m.queueDone = nil
		}
		return
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.voice = &voiceState{clip: next, done: make(chan struct{})}
	m.startVoiceLocked(next)
}

// dropVoiceLocked stops the current clip without resolving its channel.
func (m *Mixer) dropVoiceLocked() {
	if m.voice == nil {
		return
	}
	stopClip(m.voice.clip)
	m.voice = nil
}

func (m *Mixer) clearQueueLocked() {
	m.queue = nil
	if m.queueDone != nil {
		close(m.queueDone)
		m.queueDone = nil
	}
}

func (m *Mixer) stopSfxLocked() {
	for _, clip := range m.sfx {
		stopClip(clip)
	}
	m.sfx = nil
}

func (m *Mixer) applyMusicMuteLocked() {
	muted := m.muteAll || m.muteMusic
	for _, clip := range m.music {
		applyMute(clip, muted)
	}
}

func (m *Mixer) applySfxMuteLocked() {
	muted := m.muteAll || m.muteSfx
	for _, clip := range m.sfx {
		applyMute(clip, muted)
	}
}

func (m *Mixer) applyVoiceMuteLocked() {
	if m.voice == nil {
		return
	}
	applyMute(m.voice.clip, m.muteAll || m.muteVoice)
}

func applyMute(clip *Clip, muted bool) {
	if muted {
		clip.Player.SetVolume(0)
		return
	}
	clip.Player.SetVolume(clip.volume())
}

func stopClip(clip *Clip) {
	if clip == nil || clip.Player == nil {
		return
	}
	clip.Player.Pause()
	_ = clip.Player.Rewind()
}
