package models

// Preferences holds per-tenant chat behavior settings. The defaults below
// are the single source of truth; callers merge partial updates onto them
// rather than re-deriving defaults at each call site.
type Preferences struct {
	Greeting       string `bson:"greeting" json:"greeting"`
	Tone           string `bson:"tone" json:"tone" binding:"omitempty,oneof=formal friendly concise"`
	ContextLimit   int    `bson:"context_limit" json:"context_limit" binding:"omitempty,min=1,max=50"`
	MaxDocuments   int    `bson:"max_documents" json:"max_documents" binding:"omitempty,min=1,max=500"`
	AllowAnonymous bool   `bson:"allow_anonymous" json:"allow_anonymous"`
}

// DefaultPreferences is the documented default set applied when a tenant
// has never written preferences, or when a stored record is missing fields.
func DefaultPreferences() Preferences {
	return Preferences{
		Greeting:       "Hi! How can I help you today?",
		Tone:           "friendly",
		ContextLimit:   6,
		MaxDocuments:   25,
		AllowAnonymous: false,
	}
}

// Merge overlays the non-zero fields of p onto the defaults.
func (p Preferences) Merge(onto Preferences) Preferences {
	if p.Greeting != "" {
		onto.Greeting = p.Greeting
	}
	if p.Tone != "" {
		onto.Tone = p.Tone
	}
	if p.ContextLimit > 0 {
		onto.ContextLimit = p.ContextLimit
	}
	if p.MaxDocuments > 0 {
		onto.MaxDocuments = p.MaxDocuments
	}
	onto.AllowAnonymous = p.AllowAnonymous
	return onto
}
