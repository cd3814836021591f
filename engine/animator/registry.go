package animator

import (
	"strings"
	"sync"
	"unicode"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"go.uber.org/zap"
)

// ClipRegistry holds all loaded animation clips and resolves requested names to clips.
type ClipRegistry interface {
	// Register adds clips in order. A clip whose name is already registered replaces the
	// earlier entry in place. Nil clips are skipped.
	//
	// Parameters:
	//   - clips: the clips to add
	Register(clips ...*model.AnimationClip)

	// Clips returns the registered clips in registration order.
	//
	// Returns:
	//   - []*model.AnimationClip: a copy of the clip list
	Clips() []*model.AnimationClip

	// Len returns the number of registered clips.
	//
	// Returns:
	//   - int: the clip count
	Len() int

	// Lookup returns the clip registered under exactly the given name.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - *model.AnimationClip: the clip, or nil
	//   - bool: true if found
	Lookup(name string) (*model.AnimationClip, bool)

	// Resolve maps a requested name to a clip: exact name first, then name or category
	// matching (so "idle" finds "idle1" and "talk-2" finds "talk2"), then the first
	// registered clip. Returns nil only when the registry is empty.
	//
	// Parameters:
	//   - name: the requested clip name
	//
	// Returns:
	//   - *model.AnimationClip: the resolved clip, or nil if nothing is registered
	Resolve(name string) *model.AnimationClip
}

type clipRegistry struct {
	mu     *sync.Mutex
	clips  []*model.AnimationClip
	byName map[string]int
}

var _ ClipRegistry = &clipRegistry{}

// NewClipRegistry creates a registry pre-populated with the given clips.
//
// Parameters:
//   - clips: initial clips in priority order for the first-clip fallback
//
// Returns:
//   - ClipRegistry: the registry
func NewClipRegistry(clips ...*model.AnimationClip) ClipRegistry {
	r := &clipRegistry{
		mu:     &sync.Mutex{},
		byName: make(map[string]int),
	}
	r.Register(clips...)
	return r
}

func (r *clipRegistry) Register(clips ...*model.AnimationClip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range clips {
		if c == nil {
			continue
		}
		if i, ok := r.byName[c.Name]; ok {
			r.clips[i] = c
			continue
		}
		r.byName[c.Name] = len(r.clips)
		r.clips = append(r.clips, c)
	}
}

func (r *clipRegistry) Clips() []*model.AnimationClip {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AnimationClip, len(r.clips))
	copy(out, r.clips)
	return out
}

func (r *clipRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clips)
}

func (r *clipRegistry) Lookup(name string) (*model.AnimationClip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byName[name]; ok {
		return r.clips[i], true
	}
	return nil, false
}

func (r *clipRegistry) Resolve(name string) *model.AnimationClip {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.clips) == 0 {
		logger.Log.Warn("no animation clips registered", zap.String("requested", name))
		return nil
	}
	if i, ok := r.byName[name]; ok {
		return r.clips[i]
	}

	want := normalizeClipName(name)
	if want != "" {
		for _, c := range r.clips {
			if normalizeClipName(c.Name) == want {
				return c
			}
		}
		for _, c := range r.clips {
			have := normalizeClipName(c.Name)
			if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
				return c
			}
		}

		category, variant := splitCategory(want)
		if category != "" && variant != "" {
			for _, c := range r.clips {
				cc, cv := splitCategory(normalizeClipName(c.Name))
				if strings.Contains(cc, category) && cv == variant {
					return c
				}
			}
		}
		if category != "" {
			for _, c := range r.clips {
				if strings.Contains(normalizeClipName(c.Name), category) {
					return c
				}
			}
		}
	}

	logger.Log.Warn("animation clip not found, using first clip",
		zap.String("requested", name),
		zap.String("fallback", r.clips[0].Name),
	)
	return r.clips[0]
}

// IsIdleName reports whether a clip name denotes the looping idle clip.
//
// Parameters:
//   - name: a clip name
//
// Returns:
//   - bool: true if the normalized name contains "idle"
func IsIdleName(name string) bool {
	return strings.Contains(normalizeClipName(name), CategoryIdle)
}

// normalizeClipName lowercases a name and strips everything except letters and digits,
// so "Talk-2", "talk_2", and "talk2" compare equal.
func normalizeClipName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitCategory separates a normalized name into its letter part and its trailing digits,
// e.g. "talk2" -> ("talk", "2").
func splitCategory(normalized string) (category, variant string) {
	end := len(normalized)
	for end > 0 && normalized[end-1] >= '0' && normalized[end-1] <= '9' {
		end--
	}
	return normalized[:end], normalized[end:]
}
