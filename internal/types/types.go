// Package types defines the core data structures shared across the
// Adaptive Multi-Algorithm Scheduling (AMAS) core: the latent learner
// state, the per-word memory model record, the decision output, and the
// explainability/advisor/parameter-audit entities that wrap them.
//
// These types are passed by pointer between packages and are designed to
// support concurrent access through copy-on-write in the storage and
// per-user cache layers, mirroring how the teacher codebase threads
// *Thought and *Branch through its modes and storage packages.
package types

import "time"

// Metadata is a free-form bag of side-channel values attached to a
// decision, strategy, or trace entry. Kept as its own named type (rather
// than an inline map) so JSON (de)serialization call sites read clearly.
type Metadata map[string]interface{}

// Trend classifies the short-term direction of a learner's performance.
type Trend string

const (
	TrendUp    Trend = "up"
	TrendFlat  Trend = "flat"
	TrendStuck Trend = "stuck"
	TrendDown  Trend = "down"
)

// CognitiveProfile is the slow-moving (mem, speed, stability) triple
// derived by the State Estimator from response-time and accuracy history.
type CognitiveProfile struct {
	Mem       float64 `json:"mem"`
	Speed     float64 `json:"speed"`
	Stability float64 `json:"stability"`
}

// Clamp forces every field into [0,1].
func (c *CognitiveProfile) Clamp() {
	c.Mem = Clamp01(c.Mem)
	c.Speed = Clamp01(c.Speed)
	c.Stability = Clamp01(c.Stability)
}

// UserState is the latent state of one learner at time Ts (spec.md §3).
type UserState struct {
	UserID    string    `json:"user_id"`
	Ts        time.Time `json:"ts"`
	Attention float64   `json:"attention"` // [0,1]
	Fatigue   float64   `json:"fatigue"`   // [0,1]
	Motivation float64  `json:"motivation"` // [-1,1]
	Conf      float64   `json:"conf"`      // [0,1] canonical confidence, see SPEC_FULL.md §9.2
	Cognitive CognitiveProfile `json:"cognitive"`
	Trend     Trend     `json:"trend"`

	// FusedFatigue combines the EWMA fatigue with a recent-accuracy
	// regression signal. Zero value means "not computed yet".
	FusedFatigue *float64 `json:"fused_fatigue,omitempty"`
}

// Clamp enforces the declared ranges in place (spec.md §3 invariant).
func (s *UserState) Clamp() {
	s.Attention = Clamp01(s.Attention)
	s.Fatigue = Clamp01(s.Fatigue)
	s.Motivation = clamp(s.Motivation, -1, 1)
	s.Conf = Clamp01(s.Conf)
	s.Cognitive.Clamp()
	if s.FusedFatigue != nil {
		v := Clamp01(*s.FusedFatigue)
		s.FusedFatigue = &v
	}
}

// EffectiveFatigue returns FusedFatigue when present, else Fatigue.
func (s *UserState) EffectiveFatigue() float64 {
	if s.FusedFatigue != nil {
		return *s.FusedFatigue
	}
	return s.Fatigue
}

// L1Distance is the sum of absolute per-field differences used to bound
// how far a single estimation step may move a user's state (spec.md §3).
func (s *UserState) L1Distance(prev *UserState) float64 {
	if prev == nil {
		return 0
	}
	d := abs(s.Attention-prev.Attention) +
		abs(s.Fatigue-prev.Fatigue) +
		abs(s.Motivation-prev.Motivation) +
		abs(s.Conf-prev.Conf) +
		abs(s.Cognitive.Mem-prev.Cognitive.Mem) +
		abs(s.Cognitive.Speed-prev.Cognitive.Speed) +
		abs(s.Cognitive.Stability-prev.Cognitive.Stability)
	return d
}

// RawEvent is one graded interaction (spec.md §3).
type RawEvent struct {
	WordID                string        `json:"word_id,omitempty"`
	IsCorrect             bool          `json:"is_correct"`
	ResponseTimeMs        int64         `json:"response_time_ms"` // >= 0
	DwellTime             time.Duration `json:"dwell_time"`
	PauseCount            int           `json:"pause_count"`  // >= 0
	SwitchCount           int           `json:"switch_count"` // >= 0
	RetryCount            int           `json:"retry_count"`  // >= 0
	FocusLossDuration     time.Duration `json:"focus_loss_duration"`
	InteractionDensity    float64       `json:"interaction_density"`
	HintUsed              bool          `json:"hint_used"`
	Timestamp             time.Time     `json:"timestamp"`
}

// LifecycleState categorizes a (user, word) memory record.
type LifecycleState string

const (
	LifecycleNew       LifecycleState = "new"
	LifecycleLearning  LifecycleState = "learning"
	LifecycleReviewing LifecycleState = "reviewing"
	LifecycleMastered  LifecycleState = "mastered"
)

// WordMemoryState is the per (user, word) ACT-R bookkeeping record
// (spec.md §3).
type WordMemoryState struct {
	UserID           string    `json:"user_id"`
	WordID           string    `json:"word_id"`
	Stability        float64   `json:"stability"` // >= 0
	Difficulty       float64   `json:"difficulty"` // [1,10]
	Reps             int       `json:"reps"`        // >= 0
	Lapses           int       `json:"lapses"`      // >= 0
	LastReviewMs     int64     `json:"last_review_ms"`
	ScheduledDays    float64   `json:"scheduled_days"` // >= 0
	DesiredRetention float64   `json:"desired_retention"` // (0,1)
}

// Lifecycle derives the {New,Learning,Reviewing,Mastered} state from
// stability and reps, matching spec.md §3's "derived from stability and
// mastery level" description.
func (w *WordMemoryState) Lifecycle() LifecycleState {
	switch {
	case w.Reps == 0:
		return LifecycleNew
	case w.Stability < 1.0:
		return LifecycleLearning
	case w.Stability < 21.0:
		return LifecycleReviewing
	default:
		return LifecycleMastered
	}
}

// Difficulty level for strategy parameters.
type DifficultyLevel string

const (
	DifficultyEasy DifficultyLevel = "easy"
	DifficultyMid  DifficultyLevel = "mid"
	DifficultyHard DifficultyLevel = "hard"
)

// StrategyParams is the decision output of the ensemble (spec.md §3).
type StrategyParams struct {
	IntervalScale float64         `json:"interval_scale"` // [0.6, 1.6]
	NewRatio      float64         `json:"new_ratio"`       // [0.05, 0.6]
	Difficulty    DifficultyLevel `json:"difficulty"`
	BatchSize     int             `json:"batch_size"` // [4, 20]
	HintLevel     int             `json:"hint_level"` // {0,1,2}
}

// Clamp enforces the declared ranges in place.
func (p *StrategyParams) Clamp() {
	p.IntervalScale = clamp(p.IntervalScale, 0.6, 1.6)
	p.NewRatio = clamp(p.NewRatio, 0.05, 0.6)
	if p.BatchSize < 4 {
		p.BatchSize = 4
	}
	if p.BatchSize > 20 {
		p.BatchSize = 20
	}
	if p.HintLevel < 0 {
		p.HintLevel = 0
	}
	if p.HintLevel > 2 {
		p.HintLevel = 2
	}
	switch p.Difficulty {
	case DifficultyEasy, DifficultyMid, DifficultyHard:
	default:
		p.Difficulty = DifficultyMid
	}
}

// MemberID identifies one of the four closed strategy members.
type MemberID string

const (
	MemberThompson  MemberID = "thompson"
	MemberLinUCB    MemberID = "linucb"
	MemberACTR      MemberID = "actr"
	MemberHeuristic MemberID = "heuristic"
)

// MemberVote is one member's proposal plus its self-reported confidence
// (spec.md §3).
type MemberVote struct {
	MemberID   MemberID       `json:"member_id"`
	Action     StrategyParams `json:"action"`
	Contribution float64      `json:"contribution"` // [0,1] final fused weight
	Confidence float64        `json:"confidence"`   // [0,1]
}

// EnsembleWeights are non-negative and sum to 1 over the four member ids
// (spec.md §3).
type EnsembleWeights map[MemberID]float64

// Sum returns the total weight mass (should be ~1 within 1e-6).
func (w EnsembleWeights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Normalize rescales weights in place so they sum to 1. No-op on a
// zero-sum map (caller must supply at least one positive weight).
func (w EnsembleWeights) Normalize() {
	total := w.Sum()
	if total <= 0 {
		return
	}
	for k := range w {
		w[k] /= total
	}
}

// ColdStartPhase is the learner's life-cycle phase (spec.md §4.3).
type ColdStartPhase string

const (
	PhaseClassify ColdStartPhase = "classify"
	PhaseExplore  ColdStartPhase = "explore"
	PhaseNormal   ColdStartPhase = "normal"
)

// DecisionSource records whether a decision came from the cold-start
// path or the full ensemble (spec.md §4.5).
type DecisionSource string

const (
	SourceColdStart DecisionSource = "coldstart"
	SourceEnsemble  DecisionSource = "ensemble"
)

// StageDetail records one pipeline stage's timing/outcome for the trace.
type StageDetail struct {
	Stage      string        `json:"stage"`
	DurationMs float64       `json:"duration_ms"`
	BudgetMs   float64       `json:"budget_ms"`
	OverBudget bool          `json:"over_budget"`
}

// DecisionTrace is the append-only explainability record for one
// decision (spec.md §3, §4.9). TraceVersion is bumped whenever a field is
// added; fields are never renamed (spec.md §9 "reflection-style trace
// serialization" redesign note).
type DecisionTrace struct {
	TraceVersion int                    `json:"trace_version"`
	DecisionID   string                 `json:"decision_id"`
	UserID       string                 `json:"user_id"`
	Ts           time.Time              `json:"ts"`
	InputState   UserState              `json:"input_state"`
	Phase        ColdStartPhase         `json:"phase"`
	Weights      EnsembleWeights        `json:"weights"`
	Votes        []MemberVote           `json:"votes"`
	Strategy     StrategyParams         `json:"strategy"`
	Source       DecisionSource         `json:"source"`
	Reward       *float64               `json:"reward,omitempty"`
	DurationMs   float64                `json:"duration_ms"`
	FeatureHash  string                 `json:"feature_hash"`
	StageDetails []StageDetail          `json:"stage_details"`
}

// CurrentTraceVersion is the version stamped on traces produced by this
// build. Bump when adding a field to DecisionTrace; never reuse or
// rename existing fields.
const CurrentTraceVersion = 1

// DelayedReward is one buffered reward signal awaiting delivery to the
// bandit members (spec.md §3, §4.8).
type DelayedReward struct {
	UserID         string    `json:"user_id"`
	AnswerRecordID string    `json:"answer_record_id"`
	SessionID      string    `json:"session_id"`
	DecisionID     string    `json:"decision_id"`
	Reward         float64   `json:"reward"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
	DueTs          time.Time `json:"due_ts"`
	IdempotencyKey string    `json:"idempotency_key"`
	Delivered      bool      `json:"delivered"`
}

// ConfusionPair is a cached, symmetric semantic-similarity pair used to
// generate distractors (spec.md §3). Distance lower = more confusable.
type ConfusionPair struct {
	WordA    string  `json:"word_a"`
	WordB    string  `json:"word_b"`
	Distance float64 `json:"distance"` // [0,1]
}

// SuggestionStatus is the lifecycle state of an AdvisorSuggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionPartial  SuggestionStatus = "partial"
)

// SuggestionItem is one proposed parameter change inside a suggestion
// batch.
type SuggestionItem struct {
	ID       string      `json:"id"`
	Target   string      `json:"target"`
	Value    interface{} `json:"value"`
	Rationale string     `json:"rationale,omitempty"`
}

// SkippedItem records why a suggestion item was not applied.
type SkippedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// FailedItem records a suggestion item whose application errored.
type FailedItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// AdvisorSuggestion is one weekly LLM-advisor proposal batch (spec.md §3).
type AdvisorSuggestion struct {
	ID               string            `json:"id"`
	WeekStart        time.Time         `json:"week_start"`
	WeekEnd          time.Time         `json:"week_end"`
	StatsSnapshot    Metadata          `json:"stats_snapshot"`
	ParsedSuggestion []SuggestionItem  `json:"parsed_suggestion"`
	RawLLMResponse   string            `json:"raw_llm_response"`
	Status           SuggestionStatus  `json:"status"`
	AppliedItems     []string          `json:"applied_items"`
	SkippedItems     []SkippedItem     `json:"skipped_items"`
	FailedItems      []FailedItem      `json:"failed_items"`
	Heuristic        bool              `json:"heuristic"` // true if LLM call failed and heuristic fallback produced this
}

// ParameterRecord is one versioned, audit-logged configuration value
// (spec.md §3, §4.11).
type ParameterRecord struct {
	Key            string      `json:"key"`
	Value          interface{} `json:"value"`
	Version        int         `json:"version"`
	ChangedBy      string      `json:"changed_by"`
	ChangedReason  string      `json:"changed_reason"`
	PreviousValue  interface{} `json:"previous_value"`
	SuggestionID   string      `json:"suggestion_id,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func Clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
