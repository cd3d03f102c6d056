package crud

import (
	"strings"

	"gorm.io/gorm"

	"github.com/aninishioka/craft-app/domain"
	"github.com/aninishioka/craft-app/errs"
)

// ProjectService manages Projects along with their nested yarn, needle,
// hook and time log collections. It implements the domain.ProjectService
// interface.
type ProjectService struct {
	projectValidator
}

// projectValidator runs validations on incoming Project data.
// On success, it passes the data on to projectGorm.
// Otherwise, it returns the error of the validation that has failed.
type projectValidator struct {
	projectGorm
}

// projectGorm runs CRUD operations on the database using incoming
// Project data. It assumes that data has been validated.
type projectGorm struct {
	db *gorm.DB
}

// NewProjectService returns an instance of ProjectService.
func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{
		projectValidator{
			projectGorm{
				db: db,
			},
		},
	}
}

// Ensure the ProjectService struct properly implements the
// domain.ProjectService interface. If it does not, then this expression
// becomes invalid and won't compile.
var _ domain.ProjectService = &ProjectService{}

// Create runs validations needed for creating new Project database
// records, then persists the project together with its yarn rows and its
// catalog-resolved needle and hook sizes as one unit.
func (pv *projectValidator) Create(project *domain.Project, needleSizes, hookSizes []string, yarns []domain.Yarn) error {
	err := runProjectValFns(project,
		pv.userIDValid,
		pv.titleRequired,
		pv.titleMaxLength,
		pv.statusValid)
	if err != nil {
		return err
	}
	return pv.projectGorm.Create(project, needleSizes, hookSizes, yarns)
}

// Update runs the same validations as Create and then saves the static
// fields while replacing the full needle, hook and yarn sets with the
// submitted ones. Prior associations are discarded, never merged.
func (pv *projectValidator) Update(project *domain.Project, needleSizes, hookSizes []string, yarns []domain.Yarn) error {
	err := runProjectValFns(project,
		pv.idValid,
		pv.userIDValid,
		pv.titleRequired,
		pv.titleMaxLength,
		pv.statusValid)
	if err != nil {
		return err
	}
	return pv.projectGorm.Update(project, needleSizes, hookSizes, yarns)
}

// Delete runs validations needed for deleting existing Project records.
func (pv *projectValidator) Delete(project *domain.Project) error {
	if err := pv.idValid(project); err != nil {
		return err
	}
	return pv.projectGorm.Delete(project)
}

// SetPinned persists the pinned flag.
func (pv *projectValidator) SetPinned(project *domain.Project, pinned bool) error {
	if err := pv.idValid(project); err != nil {
		return err
	}
	project.Pinned = pinned
	return pv.db.Model(project).Update("pinned", pinned).Error
}

// UpdateStatus persists a new progress status.
func (pv *projectValidator) UpdateStatus(project *domain.Project, status string) error {
	if err := pv.idValid(project); err != nil {
		return err
	}
	project.Status = status
	if err := pv.statusValid(project); err != nil {
		return err
	}
	return pv.db.Model(project).Update("status", status).Error
}

// runProjectValFns runs any number of functions of type projectValFn on
// the passed in Project object. If none of them returns an error, it
// returns nil. Otherwise, it returns the respective error.
func runProjectValFns(project *domain.Project, fns ...projectValFn) error {
	for _, fn := range fns {
		if err := fn(project); err != nil {
			return err
		}
	}
	return nil
}

// A projectValFn is any function that takes in a pointer to a
// domain.Project object and returns an error.
type projectValFn func(project *domain.Project) error

// idValid makes sure that the passed in ID is greater than 0.
func (pv *projectValidator) idValid(project *domain.Project) error {
	if project.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid project.")
	}
	return nil
}

// userIDValid ensures the owner id is set.
func (pv *projectValidator) userIDValid(project *domain.Project) error {
	if project.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "A project must have an owner.")
	}
	return nil
}

// titleRequired makes sure the title is not empty.
func (pv *projectValidator) titleRequired(project *domain.Project) error {
	if strings.TrimSpace(project.Title) == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

// titleMaxLength makes sure the title fits the 100 character column.
func (pv *projectValidator) titleMaxLength(project *domain.Project) error {
	if len(project.Title) > 100 {
		return errs.Errorf(errs.EINVALID, "The title must have at most 100 characters.")
	}
	return nil
}

// statusValid makes sure the progress status is one of the known values.
func (pv *projectValidator) statusValid(project *domain.Project) error {
	switch project.Status {
	case "", domain.StatusPlanned, domain.StatusInProgress, domain.StatusFinished, domain.StatusFrogged:
		return nil
	}
	return errs.Errorf(errs.EINVALID, "Unknown progress status.")
}

// ByID retrieves a Project database record by ID, along with its owner
// (including the owner's followers, for visibility checks), yarns,
// needles, hooks, and time logs.
func (pg *projectGorm) ByID(id int) (*domain.Project, error) {
	var project domain.Project
	err := pg.db.
		Preload("User.Followers").
		Preload("Yarns").
		Preload("Needles").
		Preload("Hooks").
		Preload("TimeLogs").
		First(&project, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The project does not exist.")
		}
		return nil, err
	}
	return &project, nil
}

// Create stores the project with its associations in one transaction.
func (pg *projectGorm) Create(project *domain.Project, needleSizes, hookSizes []string, yarns []domain.Yarn) error {
	return pg.db.Transaction(func(tx *gorm.DB) error {
		project.Needles = resolveNeedles(tx, needleSizes)
		project.Hooks = resolveHooks(tx, hookSizes)
		project.Yarns = freshYarns(yarns)
		return tx.Create(project).Error
	})
}

// Update saves the static fields and replaces the needle, hook and yarn
// sets in one transaction. Yarn rows are always created fresh; the old
// rows are deleted outright.
func (pg *projectGorm) Update(project *domain.Project, needleSizes, hookSizes []string, yarns []domain.Yarn) error {
	return pg.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(project).Select("Title", "Pattern", "Designer", "Content", "Status").
			Updates(project).Error; err != nil {
			return err
		}
		if err := tx.Model(project).Association("Needles").Replace(resolveNeedles(tx, needleSizes)); err != nil {
			return err
		}
		if err := tx.Model(project).Association("Hooks").Replace(resolveHooks(tx, hookSizes)); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&domain.Yarn{}).Error; err != nil {
			return err
		}
		project.Yarns = freshYarns(yarns)
		for i := range project.Yarns {
			project.Yarns[i].ProjectID = project.ID
			if err := tx.Create(&project.Yarns[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the project along with its yarns, time logs, and
// needle/hook join rows.
func (pg *projectGorm) Delete(project *domain.Project) error {
	return pg.db.Transaction(func(tx *gorm.DB) error {
		return deleteProjectTx(tx, project)
	})
}

// deleteProjectTx removes one project and its owned collections inside
// an existing transaction. The user cascade in crud/user.go reuses it.
func deleteProjectTx(tx *gorm.DB, project *domain.Project) error {
	if err := tx.Where("project_id = ?", project.ID).Delete(&domain.Yarn{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", project.ID).Delete(&domain.TimeLog{}).Error; err != nil {
		return err
	}
	if err := tx.Model(project).Association("Needles").Clear(); err != nil {
		return err
	}
	if err := tx.Model(project).Association("Hooks").Clear(); err != nil {
		return err
	}
	return tx.Delete(&domain.Project{}, project.ID).Error
}

// NeedleCatalog returns the fixed needle size catalog in size order.
func (pg *projectGorm) NeedleCatalog() ([]domain.Needle, error) {
	var needles []domain.Needle
	if err := pg.db.Order("id asc").Find(&needles).Error; err != nil {
		return nil, err
	}
	return needles, nil
}

// HookCatalog returns the fixed hook size catalog in size order.
func (pg *projectGorm) HookCatalog() ([]domain.Hook, error) {
	var hooks []domain.Hook
	if err := pg.db.Order("id asc").Find(&hooks).Error; err != nil {
		return nil, err
	}
	return hooks, nil
}

// resolveNeedles looks the requested sizes up in the catalog. Sizes not
// in the catalog are dropped silently.
func resolveNeedles(tx *gorm.DB, sizes []string) []domain.Needle {
	resolved := []domain.Needle{}
	for _, size := range sizes {
		var needle domain.Needle
		if err := tx.Where("size = ?", size).First(&needle).Error; err != nil {
			continue
		}
		resolved = append(resolved, needle)
	}
	return resolved
}

// resolveHooks looks the requested sizes up in the catalog. Sizes not in
// the catalog are dropped silently.
func resolveHooks(tx *gorm.DB, sizes []string) []domain.Hook {
	resolved := []domain.Hook{}
	for _, size := range sizes {
		var hook domain.Hook
		if err := tx.Where("size = ?", size).First(&hook).Error; err != nil {
			continue
		}
		resolved = append(resolved, hook)
	}
	return resolved
}

// freshYarns strips ids off the submitted yarn rows so every save
// creates new records. Yarns are free-form, there is no catalog lookup.
func freshYarns(yarns []domain.Yarn) []domain.Yarn {
	fresh := make([]domain.Yarn, len(yarns))
	for i, y := range yarns {
		y.ID = 0
		y.ProjectID = 0
		fresh[i] = y
	}
	return fresh
}
