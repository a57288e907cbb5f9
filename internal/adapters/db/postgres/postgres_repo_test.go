package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	"github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// one connection keeps a single in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.Account{}, &model.RefreshToken{}, &model.SubscriptionPlan{}, &model.SubscriptionKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newAccount(loginID, email, nickname string) model.Account {
	return model.Account{
		UUID:         uuid.New(),
		LoginID:      loginID,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: "h",
	}
}

func TestAccountRepo_CreateAndGet(t *testing.T) {
	r := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()

	a := newAccount("u1", "u1@x.com", "Nick")
	require.NoError(t, r.CreateAccount(ctx, a))

	byLogin, err := r.GetByLoginID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, a.UUID, byLogin.UUID)

	byUUID, err := r.GetByUUID(ctx, a.UUID)
	require.NoError(t, err)
	require.Equal(t, "u1@x.com", byUUID.Email)
	require.Equal(t, "Nick", byUUID.Nickname)

	for field, value := range map[string]string{
		repo.FieldLoginID:  "u1",
		repo.FieldEmail:    "u1@x.com",
		repo.FieldNickname: "Nick",
	} {
		ok, err := r.Exists(ctx, field, value)
		require.NoError(t, err)
		require.True(t, ok, field)

		ok, err = r.Exists(ctx, field, value+"-other")
		require.NoError(t, err)
		require.False(t, ok, field)
	}

	_, err = r.Exists(ctx, "password_hash", "h")
	require.True(t, customErrors.IsInternal(err))

	_, err = r.GetByLoginID(ctx, "missing")
	require.True(t, customErrors.IsNotFound(err))
	_, err = r.GetByUUID(ctx, uuid.New())
	require.True(t, customErrors.IsNotFound(err))
}

func TestAccountRepo_UniqueConstraints(t *testing.T) {
	r := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.CreateAccount(ctx, newAccount("u1", "u1@x.com", "Nick")))

	cases := map[string]model.Account{
		repo.FieldLoginID:  newAccount("u1", "other@x.com", "Other"),
		repo.FieldEmail:    newAccount("u2", "u1@x.com", "Other"),
		repo.FieldNickname: newAccount("u3", "u3@x.com", "Nick"),
	}
	for field, a := range cases {
		err := r.CreateAccount(ctx, a)
		require.True(t, customErrors.IsAlreadyExists(err), field)
		require.Equal(t, field, customErrors.ConflictField(err))
	}
}

func TestAccountRepo_ConcurrentInsertSameLoginID(t *testing.T) {
	r := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.CreateAccount(ctx, newAccount("dup", fmt.Sprintf("d%d@x.com", i), fmt.Sprintf("n%d", i)))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case customErrors.IsAlreadyExists(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, n-1, conflicts)
}

func TestRefreshTokenRepo_Lifecycle(t *testing.T) {
	db := setupDB(t)
	accounts := NewPostgresAccountRepo(db)
	tokens := NewPostgresRefreshTokenRepo(db)
	ctx := context.Background()

	a := newAccount("u1", "u1@x.com", "Nick")
	require.NoError(t, accounts.CreateAccount(ctx, a))

	rt := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    a.UUID,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(ctx, rt))

	got, err := tokens.FindActive(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, a.UUID, got.UserID)
	require.Nil(t, got.RevokedAt)

	revoked, err := tokens.Revoke(ctx, "tok-1", time.Now())
	require.NoError(t, err)
	require.True(t, revoked)

	// second revoke is a no-op
	revoked, err = tokens.Revoke(ctx, "tok-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.False(t, revoked)

	_, err = tokens.FindActive(ctx, "tok-1")
	require.True(t, customErrors.IsNotFound(err))

	// row retained for audit
	var stored model.RefreshToken
	require.NoError(t, db.Where("token = ?", "tok-1").First(&stored).Error)
	require.NotNil(t, stored.RevokedAt)

	revoked, err = tokens.Revoke(ctx, "unknown", time.Now())
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRefreshTokenRepo_DuplicateTokenAndCascade(t *testing.T) {
	db := setupDB(t)
	accounts := NewPostgresAccountRepo(db)
	tokens := NewPostgresRefreshTokenRepo(db)
	ctx := context.Background()

	a := newAccount("u1", "u1@x.com", "Nick")
	require.NoError(t, accounts.CreateAccount(ctx, a))

	rt := model.RefreshToken{ID: uuid.New(), UserID: a.UUID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, tokens.Create(ctx, rt))

	rt.ID = uuid.New()
	require.True(t, customErrors.IsAlreadyExists(tokens.Create(ctx, rt)))

	require.NoError(t, db.Delete(&model.Account{}, "uuid = ?", a.UUID).Error)

	var n int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Where("user_id = ?", a.UUID).Count(&n).Error)
	require.Zero(t, n)
}

func TestPlanRepo(t *testing.T) {
	r := NewPostgresPlanRepo(setupDB(t))
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, r.Insert(ctx, []model.SubscriptionPlan{{ID: uuid.New(), Name: "p", DurationDays: 30, Price: "10.00"}}))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestClassify(t *testing.T) {
	require.True(t, customErrors.IsUnavailable(classify(context.DeadlineExceeded, "op")))
	require.True(t, customErrors.IsUnavailable(classify(&pgconn.PgError{Code: "08006"}, "op")))
	require.True(t, customErrors.IsInternal(classify(&pgconn.PgError{Code: "42P01"}, "op")))
	require.True(t, customErrors.IsInternal(classify(errors.New("boom"), "op")))
}

func TestUniqueViolation(t *testing.T) {
	field, ok := uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_email"})
	require.True(t, ok)
	require.Equal(t, repo.FieldEmail, field)

	field, ok = uniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_login_id"}))
	require.True(t, ok)
	require.Equal(t, repo.FieldLoginID, field)

	_, ok = uniqueViolation(&pgconn.PgError{Code: "23503"})
	require.False(t, ok)
}

func TestUniqueViolation_IgnoresDetailValue(t *testing.T) {
	cases := []struct {
		constraint, detail, want string
	}{
		{"uq_accounts_nickname", "Key (nickname)=(my_email) already exists.", repo.FieldNickname},
		{"uq_accounts_email", "Key (email)=(login_id@x.com) already exists.", repo.FieldEmail},
		{"uq_accounts_login_id", "Key (login_id)=(nickname) already exists.", repo.FieldLoginID},
		{"uq_refresh_tokens_token", "Key (token)=(email) already exists.", "refreshToken"},
		{"", "Key (email)=(x) already exists.", "account"},
	}
	for _, tc := range cases {
		field, ok := uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint, Detail: tc.detail})
		require.True(t, ok, tc.constraint)
		require.Equal(t, tc.want, field, tc.constraint)
	}
}

func TestAccountRepo_ConflictFieldIgnoresValue(t *testing.T) {
	r := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.CreateAccount(ctx, newAccount("email", "login_id@x.com", "nickname")))

	err := r.CreateAccount(ctx, newAccount("other", "other@x.com", "nickname"))
	require.True(t, customErrors.IsAlreadyExists(err))
	require.Equal(t, repo.FieldNickname, customErrors.ConflictField(err))
}

func TestSubscriptionKeys_UniqueAndCascade(t *testing.T) {
	db := setupDB(t)
	accounts := NewPostgresAccountRepo(db)
	ctx := context.Background()

	a := newAccount("u1", "u1@x.com", "Nick")
	require.NoError(t, accounts.CreateAccount(ctx, a))
	plan := model.SubscriptionPlan{ID: uuid.New(), Name: "p", DurationDays: 30, Price: "10.00"}
	require.NoError(t, NewPostgresPlanRepo(db).Insert(ctx, []model.SubscriptionPlan{plan}))

	now := time.Now()
	key := model.SubscriptionKey{
		ID:         uuid.New(),
		UserID:     a.UUID,
		Key:        "KEY-1",
		PlanID:     &plan.ID,
		ValidFrom:  now,
		ValidUntil: now.Add(30 * 24 * time.Hour),
	}
	require.NoError(t, db.Omit("Account", "Plan").Create(&key).Error)

	var stored model.SubscriptionKey
	require.NoError(t, db.First(&stored, "key = ?", "KEY-1").Error)
	require.Equal(t, model.KeyActive, stored.Status)

	dup := key
	dup.ID = uuid.New()
	require.Error(t, db.Omit("Account", "Plan").Create(&dup).Error)

	require.NoError(t, db.Delete(&model.Account{}, "uuid = ?", a.UUID).Error)
	var n int64
	require.NoError(t, db.Model(&model.SubscriptionKey{}).Where("user_id = ?", a.UUID).Count(&n).Error)
	require.Zero(t, n)
}
