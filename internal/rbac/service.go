package rbac

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleInUse blocks deletion of a role that still has active
	// assignments.
	ErrRoleInUse = errors.New("role is assigned to active users")
	// ErrRoleUnknown means an assignment referenced a role that does not
	// exist or is disabled.
	ErrRoleUnknown    = errors.New("some roles do not exist or are disabled")
	ErrAlreadyExists  = errors.New("role name or code already exists")
	ErrAssignmentGone = errors.New("user role assignment not found")
)

// Service manages roles, their permission sets and user assignments.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// CreateRole inserts the role and attaches the given permissions.
func (s *Service) CreateRole(ctx context.Context, role *models.Role, permissionIDs []int64) (*models.Role, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		var perms []models.Permission
		if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return err
		}
		return tx.Model(role).Association("Permissions").Replace(perms)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return s.RoleWithPermissions(ctx, role.ID)
}

// UpdateRole applies the explicitly-set changes; when permissionIDs is
// non-nil the role's permission set is replaced wholesale.
func (s *Service) UpdateRole(ctx context.Context, roleID int64, changes map[string]any, permissionIDs []int64) (*models.Role, error) {
	role, err := s.RoleWithPermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes) > 0 {
			delete(changes, "id")
			if err := tx.Model(role).Updates(changes).Error; err != nil {
				return err
			}
		}
		if permissionIDs != nil {
			var perms []models.Permission
			if len(permissionIDs) > 0 {
				if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return s.RoleWithPermissions(ctx, roleID)
}

func (s *Service) RoleWithPermissions(ctx context.Context, roleID int64) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes a role. Referential integrity is enforced here, not
// only in the store: a role with at least one active assignment cannot go.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	var role models.Role
	err := s.db.WithContext(ctx).First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	var inUse int64
	if err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("role_id = ? AND is_active = ?", roleID, true).
		Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return ErrRoleInUse
	}
	return s.db.WithContext(ctx).Select("Permissions").Delete(&role).Error
}

// AssignRoles replaces the user's whole role set: existing assignments are
// cleared and the new set inserted, all inside one transaction so readers
// never observe the cleared-but-empty window.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleIDs []int64) ([]models.UserRole, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", roleIDs, true).
		Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(roleIDs) {
		return nil, ErrRoleUnknown
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		for _, id := range roleIDs {
			if err := tx.Create(&models.UserRole{UserID: userID, RoleID: id, IsActive: true}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.UserRoles(ctx, userID)
}

// UserRoles returns the user's active assignments with roles and their
// permissions preloaded.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]models.UserRole, error) {
	var assignments []models.UserRole
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Role.Permissions").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// RemoveAssignment deletes a single user-role link.
func (s *Service) RemoveAssignment(ctx context.Context, userID, roleID int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssignmentGone
	}
	return nil
}
