package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

type seedAccount struct {
	username   string
	email      string
	role       domain.Role
	department *domain.Department
}

func deptPtr(d domain.Department) *domain.Department {
	return &d
}

// defaultAccounts is the bootstrap credential set: one admin plus one
// authority per department.
var defaultAccounts = []seedAccount{
	{username: "admin", email: "admin@university.edu", role: domain.RoleAdmin},
	{username: "academic_head", email: "academic_head@university.edu", role: domain.RoleAuthority, department: deptPtr(domain.DepartmentAcademic)},
	{username: "admin_officer", email: "admin_officer@university.edu", role: domain.RoleAuthority, department: deptPtr(domain.DepartmentAdministrative)},
	{username: "hostel_warden", email: "hostel_warden@university.edu", role: domain.RoleAuthority, department: deptPtr(domain.DepartmentHostel)},
	{username: "exam_controller", email: "exam_controller@university.edu", role: domain.RoleAuthority, department: deptPtr(domain.DepartmentExamination)},
}

// SeedDefaults creates the default admin and authority accounts when the
// store holds no admin yet. Idempotent: a second run is a no-op.
func SeedDefaults(ctx context.Context, users repository.UserRepository, cfg config.AuthConfig, logger *zap.Logger) error {
	if _, err := users.FirstByRole(ctx, domain.RoleAdmin); err == nil {
		return nil
	} else if err != pgx.ErrNoRows {
		return err
	}

	for _, account := range defaultAccounts {
		password := cfg.SeedAuthorityPassword
		if account.role == domain.RoleAdmin {
			password = cfg.SeedAdminPassword
		}
		hash, err := auth.HashPassword(password, cfg.BcryptCost)
		if err != nil {
			return err
		}
		user := &domain.User{
			Username:     account.username,
			Email:        account.email,
			PasswordHash: hash,
			Role:         account.role,
			Department:   account.department,
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		logger.Info("seeded default account",
			zap.String("username", account.username),
			zap.String("role", string(account.role)))
	}
	return nil
}
