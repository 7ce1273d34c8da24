package session

// ExecutionMode controls how much autonomy the backend gets for a session.
type ExecutionMode string

const (
	// ModePlan keeps the backend in read-only planning.
	ModePlan ExecutionMode = "plan"
	// ModeBuild allows edits with permission prompts.
	ModeBuild ExecutionMode = "build"
	// ModeYolo skips permission prompts entirely.
	ModeYolo ExecutionMode = "yolo"
)

// DefaultExecutionMode is the mode every session starts in.
const DefaultExecutionMode = ModePlan

// Valid reports whether m is one of the three known modes.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModePlan, ModeBuild, ModeYolo:
		return true
	}
	return false
}

// Normalize maps unknown or empty modes to the default.
func (m ExecutionMode) Normalize() ExecutionMode {
	if !m.Valid() {
		return DefaultExecutionMode
	}
	return m
}

// Next returns the successor in the plan -> build -> yolo -> plan cycle.
// Unknown modes restart the cycle at plan.
func (m ExecutionMode) Next() ExecutionMode {
	switch m {
	case ModePlan:
		return ModeBuild
	case ModeBuild:
		return ModeYolo
	case ModeYolo:
		return ModePlan
	default:
		return ModePlan
	}
}

// ThinkingLevel selects how much extended thinking the backend is asked for.
type ThinkingLevel string

const (
	ThinkingOff        ThinkingLevel = "off"
	ThinkingThink      ThinkingLevel = "think"
	ThinkingMegathink  ThinkingLevel = "megathink"
	ThinkingUltrathink ThinkingLevel = "ultrathink"
)

// DefaultThinkingLevel is the level every session starts at.
const DefaultThinkingLevel = ThinkingOff

// Valid reports whether l is one of the known levels.
func (l ThinkingLevel) Valid() bool {
	switch l {
	case ThinkingOff, ThinkingThink, ThinkingMegathink, ThinkingUltrathink:
		return true
	}
	return false
}

// Normalize maps unknown or empty levels to the default.
func (l ThinkingLevel) Normalize() ThinkingLevel {
	if !l.Valid() {
		return DefaultThinkingLevel
	}
	return l
}

// EffectiveThinkingLevel applies the "disable thinking outside plan mode"
// policy: when the flag is set and the session is not in plan mode, the
// selected level is forced to off.
func EffectiveThinkingLevel(selected ThinkingLevel, mode ExecutionMode, disableOutsidePlan bool) ThinkingLevel {
	level := selected.Normalize()
	if disableOutsidePlan && mode.Normalize() != ModePlan {
		return ThinkingOff
	}
	return level
}
