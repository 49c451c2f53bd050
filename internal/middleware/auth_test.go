package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
	"github.com/taskmind/taskmind/internal/request"
)

const testSecret = "test-signing-secret"

type mockUserRepo struct {
	getOrCreateFunc func(ctx context.Context, email string, name *string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) GetOrCreateByEmail(ctx context.Context, email string, name *string) (*models.User, error) {
	if m.getOrCreateFunc != nil {
		return m.getOrCreateFunc(ctx, email, name)
	}
	return &models.User{ID: uuid.New(), Email: email, Name: name}, nil
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

func signToken(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()

	builder := jwt.NewBuilder().
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	for k, v := range claims {
		builder = builder.Claim(k, v)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	okHandler := func(gotUser **models.User) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*gotUser = request.UserFromContext(r)
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		var user *models.User
		handler := Auth(testSecret, &mockUserRepo{}, zap.NewNop())(okHandler(&user))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()

		var user *models.User
		handler := Auth(testSecret, &mockUserRepo{}, zap.NewNop())(okHandler(&user))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		t.Parallel()

		var user *models.User
		handler := Auth(testSecret, &mockUserRepo{}, zap.NewNop())(okHandler(&user))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", map[string]any{"email": "a@example.com"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		token, err := jwt.NewBuilder().
			Claim("email", "a@example.com").
			IssuedAt(time.Now().Add(-2 * time.Hour)).
			Expiration(time.Now().Add(-time.Hour)).
			Build()
		if err != nil {
			t.Fatalf("build token: %v", err)
		}
		signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(testSecret)))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}

		var user *models.User
		handler := Auth(testSecret, &mockUserRepo{}, zap.NewNop())(okHandler(&user))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+string(signed))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("missing email claim", func(t *testing.T) {
		t.Parallel()

		var user *models.User
		handler := Auth(testSecret, &mockUserRepo{}, zap.NewNop())(okHandler(&user))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, map[string]any{"sub": "u1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token resolves user", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		repo := &mockUserRepo{
			getOrCreateFunc: func(ctx context.Context, email string, name *string) (*models.User, error) {
				if email != "a@example.com" {
					t.Errorf("email = %q", email)
				}
				if name == nil || *name != "Alice" {
					t.Errorf("name = %v", name)
				}
				return &models.User{ID: userID, Email: email, Name: name}, nil
			},
		}

		var user *models.User
		handler := Auth(testSecret, repo, zap.NewNop())(okHandler(&user))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, map[string]any{"email": "a@example.com", "name": "Alice"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if user == nil || user.ID != userID {
			t.Errorf("context user = %+v, want id %s", user, userID)
		}
	})
}
