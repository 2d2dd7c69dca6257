// Package storetest provides an in-memory Store for unit tests. It mirrors
// the Postgres implementation's semantics, including transactional rollback
// via state snapshots, so orchestrator tests can exercise failure paths
// without a database.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

type state struct {
	users    map[int64]*model.User
	personas map[int64]*model.Persona
	stories  map[int64][]*model.Story
	dialogs  map[int64]*model.Dialog
	messages map[int64][]*model.Message // keyed by dialog id
	unlocks  map[int64][]model.FeatureUnlock

	nextDialogID  int64
	nextMessageID int64
}

func newState() *state {
	return &state{
		users:         make(map[int64]*model.User),
		personas:      make(map[int64]*model.Persona),
		stories:       make(map[int64][]*model.Story),
		dialogs:       make(map[int64]*model.Dialog),
		messages:      make(map[int64][]*model.Message),
		unlocks:       make(map[int64][]model.FeatureUnlock),
		nextDialogID:  1,
		nextMessageID: 1,
	}
}

func (s *state) clone() *state {
	out := newState()
	out.nextDialogID = s.nextDialogID
	out.nextMessageID = s.nextMessageID
	for k, v := range s.users {
		u := *v
		out.users[k] = &u
	}
	for k, v := range s.personas {
		p := *v
		out.personas[k] = &p
	}
	for k, v := range s.stories {
		out.stories[k] = append([]*model.Story(nil), v...)
	}
	for k, v := range s.dialogs {
		d := *v
		out.dialogs[k] = &d
	}
	for k, v := range s.messages {
		msgs := make([]*model.Message, len(v))
		for i, m := range v {
			mm := *m
			msgs[i] = &mm
		}
		out.messages[k] = msgs
	}
	for k, v := range s.unlocks {
		out.unlocks[k] = append([]model.FeatureUnlock(nil), v...)
	}
	return out
}

// Fake is an in-memory store.Store safe for concurrent use.
type Fake struct {
	mu sync.Mutex
	st *state

	// FailAppend, when set, makes Messages().Append fail once. Used to drive
	// the rollback path in orchestrator tests.
	FailAppend error
}

// New creates an empty in-memory store.
func New() *Fake { return &Fake{st: newState()} }

var _ store.Store = (*Fake)(nil)

// --- Seeding helpers ---

func (f *Fake) SeedUser(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	if cp.CreationTime.IsZero() {
		cp.CreationTime = time.Now().UTC()
	}
	f.st.users[cp.ID] = &cp
}

func (f *Fake) SeedPersona(p *model.Persona) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.st.personas[cp.ID] = &cp
}

func (f *Fake) SeedStory(s *model.Story) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.st.stories[cp.PersonaID] = append(f.st.stories[cp.PersonaID], &cp)
}

func (f *Fake) SeedUnlock(userID int64, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.st.unlocks[userID] = append(f.st.unlocks[userID],
		model.FeatureUnlock{UserID: userID, Code: code, Enabled: true})
}

func (f *Fake) Users() store.Users       { return fakeUsers{f} }
func (f *Fake) Personas() store.Personas { return fakePersonas{f} }
func (f *Fake) Dialogs() store.Dialogs   { return fakeDialogs{f} }
func (f *Fake) Messages() store.Messages { return fakeMessages{f} }
func (f *Fake) Features() store.Features { return fakeFeatures{f} }

// WithinTx snapshots the state and restores it when fn errors, matching the
// rollback behavior of the Postgres store.
func (f *Fake) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	f.mu.Lock()
	snapshot := f.st.clone()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.st = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

// HealthPing always succeeds for the in-memory store.
func (f *Fake) HealthPing(ctx context.Context) error { return nil }

// --- Users ---

type fakeUsers struct{ f *Fake }

func (u fakeUsers) Get(_ context.Context, userID int64) (*model.User, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	usr, ok := u.f.st.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *usr
	return &cp, nil
}

func (u fakeUsers) DecrementTrial(_ context.Context, userID int64) error {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	usr, ok := u.f.st.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if usr.TrialMessages > 0 {
		usr.TrialMessages--
	}
	return nil
}

// --- Personas ---

type fakePersonas struct{ f *Fake }

func (p fakePersonas) GetByID(_ context.Context, personaID int64) (*model.Persona, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	per, ok := p.f.st.personas[personaID]
	if !ok {
		return nil, model.ErrPersonaNotFound
	}
	cp := *per
	return &cp, nil
}

func (p fakePersonas) GetByKey(_ context.Context, key string) (*model.Persona, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	for _, per := range p.f.st.personas {
		if per.Key == key {
			cp := *per
			return &cp, nil
		}
	}
	return nil, model.ErrPersonaNotFound
}

func (p fakePersonas) Default(_ context.Context) (*model.Persona, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	var best *model.Persona
	for _, per := range p.f.st.personas {
		if per.IsDefault && (best == nil || per.ID < best.ID) {
			best = per
		}
	}
	if best == nil {
		return nil, model.ErrPersonaNotFound
	}
	cp := *best
	return &cp, nil
}

func (p fakePersonas) Stories(_ context.Context, personaID int64) ([]*model.Story, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	src := p.f.st.stories[personaID]
	out := make([]*model.Story, len(src))
	for i, s := range src {
		cp := *s
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// --- Dialogs ---

type fakeDialogs struct{ f *Fake }

func (d fakeDialogs) Get(_ context.Context, dialogID int64) (*model.Dialog, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	dlg, ok := d.f.st.dialogs[dialogID]
	if !ok {
		return nil, model.ErrDialogNotFound
	}
	cp := *dlg
	return &cp, nil
}

func (d fakeDialogs) FindActive(_ context.Context, userID, personaID int64) (*model.Dialog, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	for _, dlg := range d.f.st.dialogs {
		if dlg.UserID == userID && dlg.PersonaID == personaID && dlg.Active {
			cp := *dlg
			return &cp, nil
		}
	}
	return nil, nil
}

func (d fakeDialogs) UsedSlots(_ context.Context, userID int64) ([]int, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	var out []int
	for _, dlg := range d.f.st.dialogs {
		if dlg.UserID == userID && dlg.Active && dlg.Slot != nil {
			out = append(out, *dlg.Slot)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (d fakeDialogs) Create(_ context.Context, in *model.Dialog) (*model.Dialog, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	cp := *in
	cp.ID = d.f.st.nextDialogID
	d.f.st.nextDialogID++
	cp.Active = true
	cp.MessageCount = 0
	now := time.Now().UTC()
	cp.CreationTime = now
	cp.UpdateTime = now
	stored := cp
	d.f.st.dialogs[cp.ID] = &stored
	return &cp, nil
}

func (d fakeDialogs) Update(_ context.Context, in *model.Dialog) error {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	dlg, ok := d.f.st.dialogs[in.ID]
	if !ok {
		return model.ErrDialogNotFound
	}
	dlg.Slot = in.Slot
	dlg.StoryKey = in.StoryKey
	dlg.Atmosphere = in.Atmosphere
	dlg.LastImageAt = in.LastImageAt
	dlg.GreetingImageIndex = in.GreetingImageIndex
	dlg.UpdateTime = time.Now().UTC()
	return nil
}

func (d fakeDialogs) SetLastImageAt(_ context.Context, dialogID int64, lastImageAt int) error {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	dlg, ok := d.f.st.dialogs[dialogID]
	if !ok {
		return model.ErrDialogNotFound
	}
	marker := lastImageAt
	dlg.LastImageAt = &marker
	dlg.UpdateTime = time.Now().UTC()
	return nil
}

func (d fakeDialogs) ListSlotted(_ context.Context, userID int64) ([]*model.Dialog, error) {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	var out []*model.Dialog
	for _, dlg := range d.f.st.dialogs {
		if dlg.UserID == userID && dlg.Active && dlg.Slot != nil {
			cp := *dlg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Slot < *out[j].Slot })
	return out, nil
}

func (d fakeDialogs) Deactivate(_ context.Context, dialogID int64) error {
	d.f.mu.Lock()
	defer d.f.mu.Unlock()
	dlg, ok := d.f.st.dialogs[dialogID]
	if !ok {
		return model.ErrDialogNotFound
	}
	dlg.Active = false
	dlg.Slot = nil
	dlg.UpdateTime = time.Now().UTC()
	return nil
}

// --- Messages ---

type fakeMessages struct{ f *Fake }

func (m fakeMessages) Append(_ context.Context, in *model.Message) (*model.Message, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	if m.f.FailAppend != nil {
		err := m.f.FailAppend
		m.f.FailAppend = nil
		return nil, err
	}
	cp := *in
	cp.ID = m.f.st.nextMessageID
	m.f.st.nextMessageID++
	cp.CreationTime = time.Now().UTC()
	stored := cp
	m.f.st.messages[cp.DialogID] = append(m.f.st.messages[cp.DialogID], &stored)
	if dlg, ok := m.f.st.dialogs[cp.DialogID]; ok {
		dlg.MessageCount++
		dlg.UpdateTime = cp.CreationTime
	}
	return &cp, nil
}

func (m fakeMessages) Recent(_ context.Context, dialogID int64, limit int) ([]*model.Message, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	src := m.f.st.messages[dialogID]
	start := len(src) - limit
	if start < 0 {
		start = 0
	}
	out := make([]*model.Message, 0, len(src)-start)
	for _, msg := range src[start:] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m fakeMessages) Last(_ context.Context, dialogID int64) (*model.Message, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	src := m.f.st.messages[dialogID]
	if len(src) == 0 {
		return nil, nil
	}
	cp := *src[len(src)-1]
	return &cp, nil
}

func (m fakeMessages) CountByDialog(_ context.Context, dialogID int64) (int, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	return len(m.f.st.messages[dialogID]), nil
}

// --- Features ---

type fakeFeatures struct{ f *Fake }

func (ff fakeFeatures) UnlockedCodes(_ context.Context, userID int64) ([]string, error) {
	ff.f.mu.Lock()
	defer ff.f.mu.Unlock()
	var out []string
	for _, u := range ff.f.st.unlocks[userID] {
		if u.Enabled {
			out = append(out, u.Code)
		}
	}
	sort.Strings(out)
	return out, nil
}
