package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// UserService handles account administration. All mutations are admin-only
// and audited.
type UserService struct {
	repo         repository.UserRepository
	employeeRepo repository.EmployeeRepository
	notification *NotificationService
	audit        *AuditService
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, employeeRepo repository.EmployeeRepository, notification *NotificationService, audit *AuditService) *UserService {
	return &UserService{
		repo:         repo,
		employeeRepo: employeeRepo,
		notification: notification,
		audit:        audit,
	}
}

// CreateUserInput carries the fields for account creation.
type CreateUserInput struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"full_name" binding:"required"`
	Role       string `json:"role"`
	EmployeeID *uint  `json:"employee_id"`
}

// Create registers a new account, optionally linking it to an employee.
func (s *UserService) Create(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	role := input.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if role != models.RoleAdmin && role != models.RoleStaff && role != models.RoleEmployee {
		return nil, NewValidationError("role", "unknown role")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             strings.ToLower(strings.TrimSpace(input.Email)),
		EncryptedPassword: string(hashed),
		FullName:          input.FullName,
		Role:              role,
		Status:            models.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	if input.EmployeeID != nil {
		employee, err := s.employeeRepo.FindByID(ctx, *input.EmployeeID)
		if err != nil {
			return nil, notFoundOr(err)
		}
		employee.UserID = &user.ID
		if err := s.employeeRepo.Update(ctx, employee); err != nil {
			return nil, err
		}
	}

	s.audit.Log(ctx, actor, models.ActionCreate, "User", itoa(user.ID),
		fmt.Sprintf("created account %s (%s)", user.Email, user.Role))
	_ = s.notification.NotifyAdmins(ctx, "New account",
		fmt.Sprintf("Account %s was created with role %s", user.Email, user.Role),
		models.NotificationTypeNewUser)

	return user, nil
}

// UpdateUserInput carries the editable account fields.
type UpdateUserInput struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

// Update edits an account. Admin only.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, input UpdateUserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if *input.Role != models.RoleAdmin && *input.Role != models.RoleStaff && *input.Role != models.RoleEmployee {
			return nil, NewValidationError("role", "unknown role")
		}
		user.Role = *input.Role
	}
	if input.Status != nil {
		if *input.Status != models.StatusActive && *input.Status != models.StatusSuspended {
			return nil, NewValidationError("status", "unknown status")
		}
		user.Status = *input.Status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "User", itoa(user.ID),
		fmt.Sprintf("updated account %s", user.Email))
	return user, nil
}

// Discard soft-deletes an account; the linked employee and all history
// stay in place.
func (s *UserService) Discard(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := s.repo.Discard(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, models.ActionDelete, "User", itoa(id),
		fmt.Sprintf("discarded account %s", user.Email))
	return nil
}

// Restore reactivates a discarded account. Admin only.
func (s *UserService) Restore(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "User", itoa(id),
		fmt.Sprintf("restored account %s", user.Email))
	return nil
}

// GetByID returns one account. Staff can read any account, everyone else
// only their own.
func (s *UserService) GetByID(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if !actor.IsStaff() && (actor.UserID == nil || *actor.UserID != id) {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return user, nil
}

// List returns accounts. Admin only.
func (s *UserService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.List(ctx, query)
}
