package domain

import "time"

// Progress status values a project can be in.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
	StatusFrogged    = "frogged"
)

// Project is a craft project owned by exactly one user. The owner never
// changes after creation. Yarns and time logs belong to the project and
// are deleted with it; needle and hook sizes are picked from a fixed
// catalog and joined many-to-many.
type Project struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id" gorm:"notNull;index"`
	User     User   `json:"-"`
	Title    string `json:"title" gorm:"size:100;notNull"`
	Pattern  string `json:"pattern" gorm:"size:150"`
	Designer string `json:"designer" gorm:"size:100"`
	Content  string `json:"content"`
	Status   string `json:"status" gorm:"size:30;notNull;default:planned"`
	Pinned   bool   `json:"pinned" gorm:"notNull;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Yarns    []Yarn    `json:"yarns"`
	Needles  []Needle  `json:"needles" gorm:"many2many:project_needles"`
	Hooks    []Hook    `json:"hooks" gorm:"many2many:project_hooks"`
	TimeLogs []TimeLog `json:"time_logs"`
}

// Needle is a knitting needle size from the fixed catalog.
type Needle struct {
	ID       int       `json:"id"`
	Size     string    `json:"size" gorm:"size:30;notNull;uniqueIndex"`
	Projects []Project `json:"-" gorm:"many2many:project_needles"`
}

// Hook is a crochet hook size from the fixed catalog.
type Hook struct {
	ID       int       `json:"id"`
	Size     string    `json:"size" gorm:"size:30;notNull;uniqueIndex"`
	Projects []Project `json:"-" gorm:"many2many:project_hooks"`
}

// Yarn is one yarn used by a project. Yarns are free-form: every row is
// created fresh from the submitted form, there is no yarn catalog.
type Yarn struct {
	ID              int    `json:"id"`
	ProjectID       int    `json:"project_id" gorm:"notNull;index"`
	YarnName        string `json:"yarn_name" gorm:"size:100"`
	Color           string `json:"color" gorm:"size:100"`
	DyeLot          string `json:"dye_lot" gorm:"size:100"`
	Weight          string `json:"weight" gorm:"size:30"`
	SkeinWeight     int    `json:"skein_weight"`
	SkeinWeightUnit string `json:"skein_weight_unit" gorm:"size:10"`
	SkeinLength     int    `json:"skein_length"`
	SkeinLengthUnit string `json:"skein_length_unit" gorm:"size:10"`
	NumSkeins       int    `json:"num_skeins"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectService is a set of methods to manipulate and work with the
// Project model and its nested collections.
type ProjectService interface {
	ByID(id int) (*Project, error)
	// Create persists the project with its yarn rows and its needle/hook
	// sizes resolved against the catalog. Sizes not in the catalog are
	// dropped, not an error.
	Create(project *Project, needleSizes, hookSizes []string, yarns []Yarn) error
	// Update saves the static fields and replaces the full needle, hook
	// and yarn sets with the submitted ones. Old associations are
	// discarded, never merged.
	Update(project *Project, needleSizes, hookSizes []string, yarns []Yarn) error
	Delete(project *Project) error
	SetPinned(project *Project, pinned bool) error
	UpdateStatus(project *Project, status string) error
	NeedleCatalog() ([]Needle, error)
	HookCatalog() ([]Hook, error)
}
