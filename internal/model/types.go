package model

import "time"

// Entitlement is the user's paid-access state as maintained by the payments
// collaborator. The chat core only reads it (and decrements the trial counter).
type Entitlement string

const (
	EntitlementTrial  Entitlement = "trial"
	EntitlementActive Entitlement = "active"
	EntitlementNone   Entitlement = "none"
)

// User is a chat participant identified by an external numeric identity
// (the Telegram user id, used verbatim as primary key).
type User struct {
	ID              int64       `json:"userId"`
	FirstName       *string     `json:"firstName,omitempty"`
	Entitlement     Entitlement `json:"entitlement"`
	TrialMessages   int         `json:"trialMessages"`
	ActivePersonaID *int64      `json:"activePersonaId,omitempty"`
	AcceptedTerms   bool        `json:"acceptedTerms"`
	CreationTime    time.Time   `json:"creationTime"`
}

// Persona is an immutable-at-runtime character descriptor. The catalog is
// seeded by external migrations; the core never mutates it.
type Persona struct {
	ID         int64    `json:"personaId"`
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Archetype  string   `json:"archetype"`
	BasePrompt string   `json:"-"`
	Triggers   []string `json:"triggers,omitempty"`
	IsDefault  bool     `json:"isDefault"`
}

// Story is a per-persona scene template that parameterizes the opening turn
// and the background mood of a dialog.
type Story struct {
	PersonaID   int64  `json:"personaId"`
	Key         string `json:"key"`
	Title       string `json:"title"`
	ScenePrompt string `json:"-"`
	Atmosphere  string `json:"atmosphere"`
	CoverPath   string `json:"coverPath,omitempty"`
}

// Dialog is the conversation channel for one (user, persona) pair.
// Slot is nil for overflow dialogs: they are fully serviceable but do not
// count against the per-user slot budget.
type Dialog struct {
	ID                 int64     `json:"dialogId"`
	UserID             int64     `json:"userId"`
	PersonaID          int64     `json:"personaId"`
	Slot               *int      `json:"slot,omitempty"`
	Active             bool      `json:"active"`
	StoryKey           *string   `json:"storyKey,omitempty"`
	Atmosphere         *string   `json:"atmosphere,omitempty"`
	MessageCount       int       `json:"messageCount"`
	LastImageAt        *int      `json:"lastImageAt,omitempty"`
	GreetingImageIndex int       `json:"greetingImageIndex"`
	CreationTime       time.Time `json:"creationTime"`
	UpdateTime         time.Time `json:"updateTime"`
}

// Role of a dialog message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one persisted half of a dialog turn. Append-only from the
// core's view; retention jobs owned by collaborators prune old rows.
type Message struct {
	ID           int64     `json:"messageId"`
	DialogID     int64     `json:"dialogId"`
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	CreationTime time.Time `json:"creationTime"`
}

// FeatureUnlock is a paid feature toggle. Read-only from the core.
type FeatureUnlock struct {
	UserID  int64  `json:"userId"`
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

// SafetyCategory classifies inbound text.
type SafetyCategory string

const (
	SafetySafe    SafetyCategory = "safe"
	SafetyHarm    SafetyCategory = "harm"
	SafetyIllegal SafetyCategory = "illegal"
	SafetyMinor   SafetyCategory = "minor"
)

// IntimacyDecision is the outcome of the intimacy gate.
type IntimacyDecision string

const (
	IntimacyAllow     IntimacyDecision = "allow"
	IntimacySoftBlock IntimacyDecision = "soft_block"
	IntimacyPaywall   IntimacyDecision = "paywall"
)

// Mode switches the prompt's framing. Closed set.
type Mode string

const (
	ModeDefault        Mode = "default"
	ModeGreetingFirst  Mode = "greeting_first"
	ModeGreetingReturn Mode = "greeting_return"
	ModeAutoContinue   Mode = "auto_continue"
)

// KnownMode reports whether m is one of the closed-set mode values.
func KnownMode(m Mode) bool {
	switch m {
	case ModeDefault, ModeGreetingFirst, ModeGreetingReturn, ModeAutoContinue:
		return true
	}
	return false
}

// Atmosphere tunes the emotional tone orthogonally to the story. Closed set.
type Atmosphere string

const (
	AtmosphereFlirtRomance Atmosphere = "flirt_romance"
	AtmosphereSupport      Atmosphere = "support"
	AtmosphereCozyEvening  Atmosphere = "cozy_evening"
	AtmosphereSeriousTalk  Atmosphere = "serious_talk"
)

// KnownAtmosphere reports whether a is one of the closed-set atmosphere values.
func KnownAtmosphere(a Atmosphere) bool {
	switch a {
	case AtmosphereFlirtRomance, AtmosphereSupport, AtmosphereCozyEvening, AtmosphereSeriousTalk:
		return true
	}
	return false
}
