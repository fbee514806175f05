package types

import "time"

// Roles
type Role string

const (
	RoleCouncillor    Role = "councillor"
	RolePresidium     Role = "presidium"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCouncillor, RolePresidium, RoleAdministrator:
		return true
	}
	return false
}

// Roster entries
type Voter struct {
	ID                 uint64 `gorm:"primaryKey"`
	Login              string `gorm:"size:64;uniqueIndex;not null"`
	FirstName          string `gorm:"size:50;not null"`
	LastName           string `gorm:"size:50;not null"`
	Role               Role   `gorm:"size:16;index;not null"`
	PasswordHash       string `gorm:"size:72"`
	MustChangePassword bool   `gorm:"not null"`
	Active             bool   `gorm:"index;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (v Voter) FullName() string {
	return v.FirstName + " " + v.LastName
}

// Council sessions
type Session struct {
	ID                 uint64    `gorm:"primaryKey"`
	Name               string    `gorm:"size:200;not null"`
	ScheduledAt        time.Time `gorm:"index;not null"`
	Active             bool      `gorm:"index;not null"`
	Closed             bool      `gorm:"not null"`
	Deleted            bool      `gorm:"index;not null"`
	Published          bool      `gorm:"not null"`
	ActiveAgendaItemID *uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CouncilStateID is the primary key of the only CouncilState row.
const CouncilStateID uint8 = 1

// CouncilState holds the council-wide pointer to the active session.
type CouncilState struct {
	ID              uint8 `gorm:"primaryKey;autoIncrement:false"`
	ActiveSessionID *uint64
	UpdatedAt       time.Time
}

// Agenda items
type AgendaItem struct {
	ID          uint64 `gorm:"primaryKey"`
	SessionID   uint64 `gorm:"not null;uniqueIndex:idx_agenda_session_ordinal,priority:1"`
	Ordinal     int    `gorm:"not null;uniqueIndex:idx_agenda_session_ordinal,priority:2"`
	Title       string `gorm:"size:300;not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null"`
	CreatedAt   time.Time
}

type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilitySecret Visibility = "secret"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilitySecret
}

type MajorityRule string

const (
	MajoritySimple   MajorityRule = "simple"
	MajorityAbsolute MajorityRule = "absolute"
)

func (m MajorityRule) Valid() bool {
	return m == MajoritySimple || m == MajorityAbsolute
}

// Polls, one per agenda item
type Poll struct {
	ID            uint64       `gorm:"primaryKey"`
	AgendaItemID  uint64       `gorm:"uniqueIndex;not null"`
	Name          string       `gorm:"size:200;not null"`
	Open          bool         `gorm:"not null"`
	Visibility    Visibility   `gorm:"size:8;not null"`
	Majority      MajorityRule `gorm:"size:8;not null"`
	EligibleCount *int
	CreatedAt     time.Time
}

// Secret reports whether the per-choice split must be withheld while open.
func (p Poll) Secret() bool {
	return p.Visibility == VisibilitySecret
}

type Choice string

const (
	ChoiceFor     Choice = "for"
	ChoiceAgainst Choice = "against"
	ChoiceAbstain Choice = "abstain"
)

func (c Choice) Valid() bool {
	switch c {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return true
	}
	return false
}

// Ballots
type Vote struct {
	ID        uint64 `gorm:"primaryKey"`
	PollID    uint64 `gorm:"not null;uniqueIndex:idx_vote_poll_voter,priority:1"`
	VoterID   uint64 `gorm:"not null;uniqueIndex:idx_vote_poll_voter,priority:2;index"`
	Choice    Choice `gorm:"size:8;not null"`
	CreatedAt time.Time
}

// Presence per session
type Attendance struct {
	ID         uint64 `gorm:"primaryKey"`
	SessionID  uint64 `gorm:"not null;uniqueIndex:idx_attendance_session_voter,priority:1"`
	VoterID    uint64 `gorm:"not null;uniqueIndex:idx_attendance_session_voter,priority:2"`
	Present    bool   `gorm:"not null"`
	RecordedBy uint64 `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Motions
type Motion struct {
	ID           uint64  `gorm:"primaryKey"`
	SubmitterID  uint64  `gorm:"index;not null"`
	AgendaItemID *uint64 `gorm:"index"`
	CommitteeID  *uint64 `gorm:"index"`
	Body         string  `gorm:"type:text;not null"`
	Signature    string  `gorm:"size:32;uniqueIndex;not null"`
	Approved     bool    `gorm:"not null"`
	ForwardedAt  *time.Time
	CreatedAt    time.Time
}

// MotionCounter backs the per-year motion signature sequence.
type MotionCounter struct {
	Year    int `gorm:"primaryKey;autoIncrement:false"`
	LastSeq int `gorm:"not null"`
}

// Committees
type Committee struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"size:200;uniqueIndex;not null"`
	CreatedAt time.Time
}

type CommitteeMember struct {
	ID          uint64 `gorm:"primaryKey"`
	CommitteeID uint64 `gorm:"not null;uniqueIndex:idx_committee_member,priority:1"`
	VoterID     uint64 `gorm:"not null;uniqueIndex:idx_committee_member,priority:2;index"`
	Chair       bool   `gorm:"not null"`
	CreatedAt   time.Time
}

// Setting represents a configuration setting stored in the database
type Setting struct {
	ID     uint32 `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active bool   `gorm:"not null"`
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&Voter{}, &Session{}, &CouncilState{},
		&AgendaItem{}, &Poll{}, &Vote{},
		&Attendance{}, &Committee{}, &CommitteeMember{},
		&Motion{}, &MotionCounter{}, &Setting{},
	}
}
