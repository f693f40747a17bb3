package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, class *models.Classroom) error
}

// CreateClassRequest is the payload for registering a classroom.
type CreateClassRequest struct {
	SchoolID   string `json:"school_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
	GradeLevel string `json:"grade_level" validate:"required,max=40"`
	TeacherID  string `json:"teacher_id" validate:"required"`
}

// ClassService manages classroom listings and registration.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns classrooms per filter.
func (s *ClassService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return classes, pagination, nil
}

// Get fetches a classroom by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch classroom")
	}
	return class, nil
}

// Create registers a new classroom.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	class := &models.Classroom{
		SchoolID:   req.SchoolID,
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
		TeacherID:  req.TeacherID,
		Active:     true,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return class, nil
}
