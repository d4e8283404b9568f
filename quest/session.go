package quest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the coarse modifier on a quest session.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a request string to a Difficulty.
// An empty string defaults to easy.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case "":
		return DifficultyEasy, nil
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	default:
		return "", ErrInvalidDifficulty
	}
}

var (
	// ErrMissingUserID is returned when a start request has no user.
	ErrMissingUserID = errors.New("quest: user id is required")
	// ErrInvalidDifficulty is returned for a difficulty outside easy/medium/hard.
	ErrInvalidDifficulty = errors.New("quest: invalid difficulty")
	// ErrUnknownObjective is returned when Advance references an objective id
	// not present in the session.
	ErrUnknownObjective = errors.New("quest: unknown objective")
	// ErrNegativeDelta is returned when Advance is given a negative xp or
	// points delta; the accumulators only ever grow.
	ErrNegativeDelta = errors.New("quest: negative delta")
)

// Objective is a discrete sub-task within a quest session.
// Completed only ever flips false→true.
type Objective struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Progress tracks accumulated progress over a session's objectives.
type Progress struct {
	CurrentObjectiveIndex int       `json:"currentObjectiveIndex"`
	CompletedObjectives   int       `json:"completedObjectives"`
	TotalObjectives       int       `json:"totalObjectives"`
	XPEarned              int       `json:"xpEarned"`
	Points                int       `json:"points"`
	StartedAt             time.Time `json:"startedAt"`
}

// Session is the live record of a user's progress through a quest.
type Session struct {
	SessionID  string      `json:"sessionId"`
	UserID     string      `json:"userId"`
	Title      string      `json:"title"`
	Difficulty Difficulty  `json:"difficulty"`
	Objectives []Objective `json:"objectives"`
	Progress   Progress    `json:"progress"`
}

// starterObjectives holds the deterministic objective sets handed out at
// session start, keyed by difficulty. Goals submitted with the start request
// do not influence these yet.
var starterObjectives = map[Difficulty][]Objective{
	DifficultyEasy: {
		{ID: "obj-1", Title: "Warm Up", Description: "Finish your first practice exercise"},
		{ID: "obj-2", Title: "Steady Steps", Description: "Complete a full lesson without hints"},
		{ID: "obj-3", Title: "Quick Recall", Description: "Pass a short review quiz"},
	},
	DifficultyMedium: {
		{ID: "obj-1", Title: "Momentum", Description: "Complete two lessons back to back"},
		{ID: "obj-2", Title: "Sharpened Focus", Description: "Score 80% or higher on a quiz"},
		{ID: "obj-3", Title: "Challenge Round", Description: "Solve a timed challenge problem"},
	},
	DifficultyHard: {
		{ID: "obj-1", Title: "Deep Dive", Description: "Work through an advanced topic"},
		{ID: "obj-2", Title: "Perfect Run", Description: "Score 100% on a quiz"},
		{ID: "obj-3", Title: "Boss Fight", Description: "Beat the end-of-unit mastery test"},
	},
}

var difficultyTitles = map[Difficulty]string{
	DifficultyEasy:   "Learning Quest",
	DifficultyMedium: "Scholar's Challenge",
	DifficultyHard:   "Master's Trial",
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return "qs_" + uuid.NewString()
}

// NewSession builds a fully populated quest session for the given user.
// goals are accepted but not incorporated into the generated objectives.
// It is a pure construction: no I/O, no persistence.
func NewSession(userID string, difficulty Difficulty, goals []string) (*Session, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	starter, ok := starterObjectives[difficulty]
	if !ok {
		return nil, ErrInvalidDifficulty
	}
	_ = goals // latent input, see service.go

	objectives := make([]Objective, len(starter))
	copy(objectives, starter)

	return &Session{
		SessionID:  NewSessionID(),
		UserID:     userID,
		Title:      difficultyTitles[difficulty],
		Difficulty: difficulty,
		Objectives: objectives,
		Progress: Progress{
			CurrentObjectiveIndex: 0,
			CompletedObjectives:   0,
			TotalObjectives:       len(objectives),
			XPEarned:              0,
			Points:                0,
			StartedAt:             time.Now().UTC(),
		},
	}, nil
}

// Advance marks the objective with the given id completed and accumulates the
// xp and points deltas. Completing an already-completed objective is a no-op
// for the counters; the deltas still apply. Both deltas must be non-negative.
func (s *Session) Advance(objectiveID string, xpDelta, pointsDelta int) error {
	if xpDelta < 0 || pointsDelta < 0 {
		return ErrNegativeDelta
	}

	idx := -1
	for i := range s.Objectives {
		if s.Objectives[i].ID == objectiveID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownObjective, objectiveID)
	}

	s.Objectives[idx].Completed = true

	completed := 0
	for i := range s.Objectives {
		if s.Objectives[i].Completed {
			completed++
		}
	}
	s.Progress.CompletedObjectives = completed
	s.Progress.CurrentObjectiveIndex = s.nextIncomplete()
	s.Progress.XPEarned += xpDelta
	s.Progress.Points += pointsDelta
	return nil
}

// nextIncomplete returns the index of the first incomplete objective, or
// len(Objectives) when every objective is done (the terminal state).
func (s *Session) nextIncomplete() int {
	for i := range s.Objectives {
		if !s.Objectives[i].Completed {
			return i
		}
	}
	return len(s.Objectives)
}

// Completed reports whether the session has reached its terminal state.
func (s *Session) Completed() bool {
	return s.Progress.CurrentObjectiveIndex >= s.Progress.TotalObjectives
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Objectives = make([]Objective, len(s.Objectives))
	copy(cp.Objectives, s.Objectives)
	return &cp
}
