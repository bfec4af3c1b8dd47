// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salexim/directory-backend/internal/attachment"
	"github.com/salexim/directory-backend/internal/auth"
	"github.com/salexim/directory-backend/internal/core"
	"github.com/salexim/directory-backend/internal/events"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       string
	UserType string
}

func (a Actor) IsAdmin() bool {
	return a.UserType == TypeAdmin
}

func (a Actor) canManage(target *User) bool {
	return a.IsAdmin() || a.ID == target.ID
}

type Service struct {
	repo      Repository
	publisher events.Publisher
}

func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// SignUp creates a primary account. The email must have a verified OTP
// record, which is consumed in the same transaction.
func (s *Service) SignUp(
	ctx context.Context,
	req SignUpRequest,
	certificate *attachment.Attachment,
) (*User, error) {
	if certificate == nil {
		return nil, fmt.Errorf("sign up: certificate is required: %w", core.ErrInvalidInput)
	}
	if req.UserType != TypeUser {
		return nil, fmt.Errorf("sign up as %q: %w", req.UserType, core.ErrForbidden)
	}

	email := normalizeEmail(req.Email)

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PhoneNo:      req.PhoneNo,
		PasswordHash: passwordHash,
		UserType:     TypeUser,
		Package:      req.Package,
		Type:         req.Type,
		GSTIN:        req.GSTIN,
		IsVerified:   false,
	}
	user.SetCertificate(certificate)

	if err := s.repo.CreateVerified(ctx, user); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.SubjectSignedUp, events.AccountEvent{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	})

	return user, nil
}

// AddUser creates a verified sub-account under req.AddedBy. The new
// account inherits the parent's certificate and company.
func (s *Service) AddUser(
	ctx context.Context,
	actor Actor,
	req AddUserRequest,
) (*User, error) {
	if !actor.IsAdmin() && actor.ID != req.AddedBy {
		return nil, fmt.Errorf("add user: %w", core.ErrForbidden)
	}

	email := normalizeEmail(req.Email)

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	pkg := 1
	if req.Package != nil {
		pkg = *req.Package
	}

	parentID := req.AddedBy
	child := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PhoneNo:      req.PhoneNo,
		PasswordHash: passwordHash,
		UserType:     TypeAdded,
		Package:      pkg,
		Type:         req.Type,
		GSTIN:        req.GSTIN,
		IsVerified:   true,
		AddedBy:      &parentID,
	}

	if err := s.repo.CreateAdded(ctx, child); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.SubjectAdded, events.AccountEvent{
		UserID:   child.ID,
		Email:    child.Email,
		UserType: child.UserType,
		AddedBy:  parentID,
	})

	return child, nil
}

// UpdateAddedUser may be called by the sub-account itself, its parent
// or an admin.
func (s *Service) UpdateAddedUser(
	ctx context.Context,
	actor Actor,
	id string,
	req UpdateAddedUserRequest,
) (*User, error) {
	req.normalize()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.canManage(user) && (user.AddedBy == nil || *user.AddedBy != actor.ID) {
		return nil, fmt.Errorf("update added user: %w", core.ErrForbidden)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhoneNo != nil {
		user.PhoneNo = *req.PhoneNo
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ListAddedUsers defaults to the caller's own sub-accounts.
func (s *Service) ListAddedUsers(
	ctx context.Context,
	actor Actor,
	addedBy string,
) ([]User, error) {
	if addedBy == "" {
		addedBy = actor.ID
	}

	if !actor.IsAdmin() && actor.ID != addedBy {
		return nil, fmt.Errorf("list added users: %w", core.ErrForbidden)
	}

	return s.repo.ListByAddedBy(ctx, addedBy)
}

// DeleteAddedUser removes childID and unlinks it from its parent. When
// parentID is given it must be the child's recorded parent.
func (s *Service) DeleteAddedUser(
	ctx context.Context,
	actor Actor,
	childID, parentID string,
) error {
	child, err := s.repo.GetByID(ctx, childID)
	if err != nil {
		return err
	}

	if !child.IsAdded() {
		return fmt.Errorf("delete added user: not an added user: %w", core.ErrNotFound)
	}

	owner := *child.AddedBy
	if parentID != "" && parentID != owner {
		return fmt.Errorf("delete added user: parent mismatch: %w", core.ErrNotFound)
	}

	if !actor.IsAdmin() && actor.ID != owner {
		return fmt.Errorf("delete added user: %w", core.ErrForbidden)
	}

	if err := s.repo.DeleteAdded(ctx, childID, owner); err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, events.SubjectDeleted, events.AccountEvent{
		UserID:  childID,
		Email:   child.Email,
		AddedBy: owner,
	})

	return nil
}

// UpdateUser applies only the supplied fields. Changing userType,
// isVerified or package requires an admin.
func (s *Service) UpdateUser(
	ctx context.Context,
	actor Actor,
	id string,
	req UpdateUserRequest,
	certificate *attachment.Attachment,
) (*User, error) {
	req.normalize()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.canManage(user) {
		return nil, fmt.Errorf("update user: %w", core.ErrForbidden)
	}

	privileged := req.UserType != nil || req.IsVerified != nil || req.Package != nil
	if privileged && !actor.IsAdmin() {
		return nil, fmt.Errorf("update user: privileged field: %w", core.ErrForbidden)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.PhoneNo != nil {
		user.PhoneNo = *req.PhoneNo
	}
	if req.UserType != nil && user.UserType != TypeAdded {
		user.UserType = *req.UserType
	}
	if req.Package != nil {
		user.Package = *req.Package
	}
	if req.GSTIN != nil {
		user.GSTIN = req.GSTIN
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	if req.CompanyID != nil {
		user.CompanyID = req.CompanyID
	}
	if certificate != nil {
		user.SetCertificate(certificate)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor Actor, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.canManage(user) {
		return fmt.Errorf("delete user: %w", core.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	ev := events.AccountEvent{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	}
	if user.AddedBy != nil {
		ev.AddedBy = *user.AddedBy
	}
	events.Emit(ctx, s.publisher, events.SubjectDeleted, ev)

	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, actor Actor, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.canManage(user) {
		return nil, fmt.Errorf("get user: %w", core.ErrForbidden)
	}

	return user, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return core.ErrDuplicateKey
	}
	return nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, normalizeEmail(email))
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByResetTokenHash(
	ctx context.Context,
	tokenHash string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	userID, tokenHash string,
	expires time.Time,
) error {
	return s.repo.SetResetToken(ctx, userID, tokenHash, expires)
}

func (s *Service) ResetPassword(
	ctx context.Context,
	userID, tokenHash, passwordHash string,
	now time.Time,
) error {
	if err := s.repo.ResetPassword(ctx, userID, tokenHash, passwordHash, now); err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, events.SubjectPasswordReset, events.AccountEvent{
		UserID: userID,
	})

	return nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                   u.ID,
		Email:                u.Email,
		Name:                 u.Name,
		PhoneNo:              u.PhoneNo,
		PasswordHash:         u.PasswordHash,
		UserType:             u.UserType,
		Package:              u.Package,
		Type:                 u.Type,
		GSTIN:                u.GSTIN,
		IsVerified:           u.IsVerified,
		Certificate:          u.Certificate(),
		CompanyID:            u.CompanyID,
		AddedBy:              u.AddedBy,
		AddedUsers:           []string(u.AddedUsers),
		ResetPasswordExpires: u.ResetPasswordExpires,
		TokenVersion:         u.TokenVersion,
		CreatedAt:            u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ auth.UserProvider = (*Service)(nil)
