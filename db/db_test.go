package db

import (
	"testing"
	"time"

	"github.com/tunestats/tunestats/models"
)

func setupTestDB(t *testing.T) *DB {
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}

func testUser(email string) *models.User {
	return &models.User{
		Email:         email,
		Name:          "Test Listener",
		AccessToken:   "access",
		RefreshToken:  "refresh",
		ListenTime:    0,
		LastCheckTime: 1_000_000_000,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestCreateAndGetUser(t *testing.T) {
	database := setupTestDB(t)

	created, err := database.CreateUser(testUser("u1@example.com"))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if !created {
		t.Fatal("expected user to be created")
	}

	user, err := database.GetUserByEmail("u1@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user == nil {
		t.Fatal("expected a user, got nil")
	}
	if user.Name != "Test Listener" || user.ListenTime != 0 || user.LastCheckTime != 1_000_000_000 {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestGetUserByEmailMissing(t *testing.T) {
	database := setupTestDB(t)

	user, err := database.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unknown email, got %+v", user)
	}
}

func TestCreateUserDuplicateIsNoOp(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.CreateUser(testUser("u1@example.com")); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}
	if err := database.UpdateListenState("u1@example.com", 42, 2_000_000_000); err != nil {
		t.Fatalf("UpdateListenState failed: %v", err)
	}

	dup := testUser("u1@example.com")
	dup.Name = "Impostor"
	created, err := database.CreateUser(dup)
	if err != nil {
		t.Fatalf("duplicate CreateUser errored: %v", err)
	}
	if created {
		t.Error("expected duplicate create to be a no-op")
	}

	user, err := database.GetUserByEmail("u1@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Name != "Test Listener" {
		t.Errorf("original record was overwritten: %+v", user)
	}
	if user.ListenTime != 42 || user.LastCheckTime != 2_000_000_000 {
		t.Errorf("listen state lost on duplicate create: %+v", user)
	}
}

func TestGetAllUsers(t *testing.T) {
	database := setupTestDB(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := database.CreateUser(testUser(email)); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	users, err := database.GetAllUsers()
	if err != nil {
		t.Fatalf("GetAllUsers failed: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}
}

func TestUpdateUserTokens(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.CreateUser(testUser("u1@example.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := database.UpdateUserTokens("u1@example.com", "new-access", "new-refresh"); err != nil {
		t.Fatalf("UpdateUserTokens failed: %v", err)
	}

	user, _ := database.GetUserByEmail("u1@example.com")
	if user.AccessToken != "new-access" || user.RefreshToken != "new-refresh" {
		t.Errorf("tokens not updated: %+v", user)
	}
	if user.ListenTime != 0 || user.LastCheckTime != 1_000_000_000 {
		t.Errorf("token update touched listen state: %+v", user)
	}
}

func TestUpdateListenStateAndTouch(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.CreateUser(testUser("u1@example.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := database.UpdateListenState("u1@example.com", 3_000_000_000, 4_000_000_000); err != nil {
		t.Fatalf("UpdateListenState failed: %v", err)
	}

	user, _ := database.GetUserByEmail("u1@example.com")
	if user.ListenTime != 3_000_000_000 || user.LastCheckTime != 4_000_000_000 {
		t.Errorf("listen state not updated: %+v", user)
	}

	if err := database.TouchLastCheck("u1@example.com", 5_000_000_000); err != nil {
		t.Fatalf("TouchLastCheck failed: %v", err)
	}

	user, _ = database.GetUserByEmail("u1@example.com")
	if user.ListenTime != 3_000_000_000 {
		t.Errorf("TouchLastCheck changed the accumulator: %+v", user)
	}
	if user.LastCheckTime != 5_000_000_000 {
		t.Errorf("TouchLastCheck did not advance the checkpoint: %+v", user)
	}
}
