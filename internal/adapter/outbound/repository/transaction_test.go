package repository

import (
	"context"
	"errors"
	"testing"
)

func TestTransactionManager_CommitPersistsJob(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	defer cleanupTestData(t, pool)

	txManager := NewTransactionManager(pool)
	repo := NewPostgreSQLConversionJobRepository(pool)
	job := createTestConversionJob("src/tx-commit.js")

	err := txManager.WithTransaction(context.Background(), func(ctx context.Context) error {
		return repo.Save(ctx, job)
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	found, err := repo.FindByID(context.Background(), job.ID())
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected committed job to be findable")
	}
}

func TestTransactionManager_RollbackDiscardsJob(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	defer cleanupTestData(t, pool)

	txManager := NewTransactionManager(pool)
	repo := NewPostgreSQLConversionJobRepository(pool)
	job := createTestConversionJob("src/tx-rollback.js")

	sentinel := errors.New("abort the transaction")
	err := txManager.WithTransaction(context.Background(), func(ctx context.Context) error {
		if saveErr := repo.Save(ctx, job); saveErr != nil {
			return saveErr
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected sentinel error, got %v", err)
	}

	found, err := repo.FindByID(context.Background(), job.ID())
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found != nil {
		t.Error("Expected rolled back job to be gone")
	}
}

func TestTransactionManager_QueriesJoinTransaction(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	defer cleanupTestData(t, pool)

	txManager := NewTransactionManager(pool)
	repo := NewPostgreSQLConversionJobRepository(pool)
	job := createTestConversionJob("src/tx-join.js")

	sentinel := errors.New("roll back after reading")
	err := txManager.WithTransaction(context.Background(), func(ctx context.Context) error {
		if saveErr := repo.Save(ctx, job); saveErr != nil {
			return saveErr
		}

		// A read through the same context sees the uncommitted row.
		found, findErr := repo.FindByID(ctx, job.ID())
		if findErr != nil {
			return findErr
		}
		if found == nil {
			t.Error("Expected in-transaction read to see the saved job")
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected sentinel error, got %v", err)
	}

	// Outside the transaction the rollback wins.
	found, err := repo.FindByID(context.Background(), job.ID())
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found != nil {
		t.Error("Expected rolled back job to be invisible outside the transaction")
	}
}

func TestTransactionManager_BeginFailsOnClosedPool(t *testing.T) {
	pool := setupTestDB(t)
	pool.Close()

	txManager := NewTransactionManager(pool)
	err := txManager.WithTransaction(context.Background(), func(context.Context) error {
		return nil
	})
	if err == nil {
		t.Fatal("Expected error when beginning a transaction on a closed pool")
	}
}

func TestGetQueryInterface_FallsBackToPool(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	qi := GetQueryInterface(context.Background(), pool)
	if qi != QueryInterface(pool) {
		t.Error("Expected plain context to resolve to the pool")
	}
}
