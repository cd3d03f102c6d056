package crud

import (
	"gorm.io/gorm"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

// TimeLogService manages TimeLogs.
// It implements the domain.TimeLogService interface.
type TimeLogService struct {
	timeLogValidator
}

// timeLogValidator runs validations on incoming TimeLog data.
// On success, it passes the data on to timeLogGorm.
// Otherwise, it returns the error of the validation that has failed.
type timeLogValidator struct {
	timeLogGorm
}

// timeLogGorm runs CRUD operations on the database using incoming
// TimeLog data. It assumes that data has been validated.
type timeLogGorm struct {
	db *gorm.DB
}

// NewTimeLogService returns an instance of TimeLogService.
func NewTimeLogService(db *gorm.DB) *TimeLogService {
	return &TimeLogService{
		timeLogValidator{
			timeLogGorm{
				db: db,
			},
		},
	}
}

// Ensure the TimeLogService struct properly implements the
// domain.TimeLogService interface. If it does not, then this expression
// becomes invalid and won't compile.
var _ domain.TimeLogService = &TimeLogService{}

// Create runs validations needed for creating new TimeLog records.
func (tv *timeLogValidator) Create(log *domain.TimeLog) error {
	err := runTimeLogValFns(log,
		tv.projectIDValid,
		tv.durationValid,
		tv.dateRequired)
	if err != nil {
		return err
	}
	return tv.timeLogGorm.Create(log)
}

// Update runs validations needed for updating existing TimeLog records.
func (tv *timeLogValidator) Update(log *domain.TimeLog) error {
	err := runTimeLogValFns(log,
		tv.idValid,
		tv.projectIDValid,
		tv.durationValid,
		tv.dateRequired)
	if err != nil {
		return err
	}
	return tv.timeLogGorm.Update(log)
}

// runTimeLogValFns runs any number of functions of type timeLogValFn on
// the passed in TimeLog object. If none of them returns an error, it
// returns nil. Otherwise, it returns the respective error.
func runTimeLogValFns(log *domain.TimeLog, fns ...timeLogValFn) error {
	for _, fn := range fns {
		if err := fn(log); err != nil {
			return err
		}
	}
	return nil
}

// A timeLogValFn is any function that takes in a pointer to a
// domain.TimeLog object and returns an error.
type timeLogValFn func(log *domain.TimeLog) error

// idValid makes sure that the passed in ID is greater than 0.
func (tv *timeLogValidator) idValid(log *domain.TimeLog) error {
	if log.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid time log.")
	}
	return nil
}

// projectIDValid ensures the parent project id is set.
func (tv *timeLogValidator) projectIDValid(log *domain.TimeLog) error {
	if log.ProjectID <= 0 {
		return errs.Errorf(errs.EINVALID, "A time log must belong to a project.")
	}
	return nil
}

// durationValid makes sure hours and minutes describe a real duration.
func (tv *timeLogValidator) durationValid(log *domain.TimeLog) error {
	if log.Hours < 0 || log.Minutes < 0 || log.Minutes > 59 {
		return errs.Errorf(errs.EINVALID, "Invalid duration.")
	}
	if log.Hours == 0 && log.Minutes == 0 {
		return errs.Errorf(errs.EINVALID, "Logged time must be greater than zero.")
	}
	return nil
}

// dateRequired makes sure a date was submitted.
func (tv *timeLogValidator) dateRequired(log *domain.TimeLog) error {
	if log.Date.IsZero() {
		return errs.Errorf(errs.EINVALID, "A date is required.")
	}
	return nil
}

// ByID retrieves a TimeLog database record by ID along with its parent
// project, which the request layer needs for the ownership check.
func (tg *timeLogGorm) ByID(id int) (*domain.TimeLog, error) {
	var log domain.TimeLog
	err := tg.db.Preload("Project").First(&log, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The time log does not exist.")
		}
		return nil, err
	}
	return &log, nil
}

// Create stores the data from the TimeLog object in a new database record.
func (tg *timeLogGorm) Create(log *domain.TimeLog) error {
	return tg.db.Create(log).Error
}

// Update saves changes to an existing time log record in the database.
func (tg *timeLogGorm) Update(log *domain.TimeLog) error {
	return tg.db.Model(log).Select("Date", "Hours", "Minutes", "Notes").Updates(log).Error
}
