// internal/identity/implementation.go
package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// service implements the Service interface.
type service struct {
	db          *sql.DB
	tokens      *tokenIssuer
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance. tokenSecret signs the
// bearer tokens handed out on sign-in.
func NewService(db *sql.DB, tokenSecret []byte, tokenTTL time.Duration) Service {
	return &service{
		db:          db,
		tokens:      newTokenIssuer(tokenSecret, tokenTTL),
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 requests per minute
	}
}

// Register creates a new account with the default role and signs it in.
func (s *service) Register(ctx context.Context, email, displayName, photoURL, password string) (*Session, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrMissingPassword
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	if _, err := s.getUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Role:        RoleUser,
		Version:     1,
	}
	credential := &Credential{
		UserID:       user.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.insertUser(ctx, user, credential); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	return s.newSession(user)
}

func (s *service) insertUser(ctx context.Context, user *User, credential *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, email, display_name, photo_url, role, version)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, userQuery, user.ID, user.Email, user.DisplayName, user.PhotoURL, user.Role, user.Version)
	if err != nil {
		return err
	}

	credQuery := `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`
	_, err = tx.ExecContext(ctx, credQuery, credential.UserID, credential.PasswordHash, credential.Salt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SignIn verifies credentials and issues a fresh session.
func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrUserNotFound
	}

	credential, err := s.getCredential(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrWrongPassword
	}

	return s.newSession(user)
}

func (s *service) newSession(user *User) (*Session, error) {
	token, err := s.tokens.issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Token:       token,
	}, nil
}

// Upsert records an account on first external sign-in. Existing accounts keep
// their role and stored profile.
func (s *service) Upsert(ctx context.Context, email, displayName, photoURL string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if user, err := s.getUserByEmail(ctx, email); err == nil {
		return user, nil
	}

	user := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Role:        RoleUser,
		Version:     1,
	}

	query := `
		INSERT INTO users (id, email, display_name, photo_url, role, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.DisplayName, user.PhotoURL, user.Role, user.Version); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.getUserByEmail(ctx, email)
}

// GetUser retrieves an account by email.
func (s *service) GetUser(ctx context.Context, email string) (*User, error) {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *service) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, display_name, photo_url, role, version, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	user := &User{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&user.Role,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) getCredential(ctx context.Context, userID uuid.UUID) (*Credential, error) {
	query := `
		SELECT user_id, password_hash, salt
		FROM credentials
		WHERE user_id = $1
	`
	credential := &Credential{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&credential.UserID,
		&credential.PasswordHash,
		&credential.Salt,
	)
	if err != nil {
		return nil, err
	}
	return credential, nil
}

// ListUsers returns every account, newest first.
func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, email, display_name, photo_url, role, version, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PhotoURL, &user.Role, &user.Version, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile patches the mutable profile fields.
func (s *service) UpdateProfile(ctx context.Context, email, displayName, photoURL string) error {
	query := `
		UPDATE users
		SET display_name = $1, photo_url = $2, version = version + 1, updated_at = NOW()
		WHERE email = $3
	`
	res, err := s.db.ExecContext(ctx, query, displayName, photoURL, email)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRole changes an account's role. Only admin callers reach this.
func (s *service) UpdateRole(ctx context.Context, email string, newRole Role) error {
	if !newRole.Valid() {
		return fmt.Errorf("invalid role %q", newRole)
	}

	query := `
		UPDATE users
		SET role = $1, version = version + 1, updated_at = NOW()
		WHERE email = $2
	`
	res, err := s.db.ExecContext(ctx, query, newRole, email)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResolveRole fetches the role attached to an account. Lookup failures and
// unknown accounts settle as failed resolutions, never as the base role.
func (s *service) ResolveRole(ctx context.Context, email string) RoleResolution {
	var role Role
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE email = $1`, email).Scan(&role)
	if err != nil {
		return RoleFailed()
	}
	if !role.Valid() {
		return RoleFailed()
	}
	return RoleResolved(role)
}

// VerifyToken validates a bearer token and rebuilds the session it names.
func (s *service) VerifyToken(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.parse(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return &Session{
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
		Token:       token,
	}, nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
