package world

import (
	"time"

	"github.com/StoreStation/VibeShitBot/pkg/chat"
)

// Title timings in ticks a reset returns to.
const (
	DefaultTitleFadeIn  = 10
	DefaultTitleStay    = 70
	DefaultTitleFadeOut = 20
)

// TitleState is the title overlay as the server last described it. Timings
// are in ticks.
type TitleState struct {
	Title     chat.Message
	Subtitle  chat.Message
	ActionBar chat.Message
	FadeIn    int32
	Stay      int32
	FadeOut   int32
}

// Duration is how long a title stays on screen, fades included.
func (s TitleState) Duration() time.Duration {
	return time.Duration(s.FadeIn+s.Stay+s.FadeOut) * time.Second / TicksPerSecond
}

func defaultTitle() TitleState {
	return TitleState{FadeIn: DefaultTitleFadeIn, Stay: DefaultTitleStay, FadeOut: DefaultTitleFadeOut}
}

// SetTitle shows a title and returns the new overlay.
func (w *World) SetTitle(msg chat.Message) TitleState {
	return w.updateTitle(func(s *TitleState) { s.Title = msg })
}

// SetSubtitle sets the line under the title.
func (w *World) SetSubtitle(msg chat.Message) TitleState {
	return w.updateTitle(func(s *TitleState) { s.Subtitle = msg })
}

// SetActionBar sets the text above the hotbar.
func (w *World) SetActionBar(msg chat.Message) TitleState {
	return w.updateTitle(func(s *TitleState) { s.ActionBar = msg })
}

// SetTitleTimes sets the fade in, stay and fade out ticks.
func (w *World) SetTitleTimes(fadeIn, stay, fadeOut int32) TitleState {
	return w.updateTitle(func(s *TitleState) {
		s.FadeIn, s.Stay, s.FadeOut = fadeIn, stay, fadeOut
	})
}

// ClearTitle hides the title and subtitle. A reset also restores the default
// timings.
func (w *World) ClearTitle(reset bool) TitleState {
	return w.updateTitle(func(s *TitleState) {
		s.Title, s.Subtitle = chat.Message{}, chat.Message{}
		if reset {
			s.FadeIn, s.Stay, s.FadeOut = DefaultTitleFadeIn, DefaultTitleStay, DefaultTitleFadeOut
		}
	})
}

// Title returns the current overlay.
func (w *World) Title() TitleState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

func (w *World) updateTitle(fn func(*TitleState)) TitleState {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.title)
	return w.title
}
