package persistence

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type UsageRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool      *pgxpool.Pool
	pgContainer *postgres.PostgresContainer
	usageRepo   usage.Repository
}

func (s *UsageRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool
	s.usageRepo = NewPostgresUsageRepo(s.dbPool, logger.NewNopLogger())
}

func (s *UsageRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func (s *UsageRepoIntegrationTestSuite) SetupTest() {
	_, err := s.dbPool.Exec(context.Background(), `TRUNCATE usage_records`)
	s.Require().NoError(err)
}

func TestUsageRepoIntegration(t *testing.T) {
	if testing.Short() || os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set INTEGRATION_TESTS=1 to run.")
	}
	suite.Run(t, new(UsageRepoIntegrationTestSuite))
}

func (s *UsageRepoIntegrationTestSuite) Test_Save_And_ListRecent() {
	ctx := context.Background()

	older := usage.NewSuccessRecord("gemini-pro", "hello", "echo:hello")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := usage.NewFailedRecord("gemini-pro", errors.New("quota exhausted"))

	s.NoError(s.usageRepo.Save(ctx, older))
	s.NoError(s.usageRepo.Save(ctx, newer))

	records, err := s.usageRepo.ListRecent(ctx, usage.ServiceGemini, 10)

	s.NoError(err)
	s.Len(records, 2)
	s.Equal(newer.ID, records[0].ID)
	s.Equal(usage.StatusFailed, records[0].Status)
	s.Equal("quota exhausted", records[0].Error)
	s.Equal(older.ID, records[1].ID)
	s.Equal(older.UsageQuantity, records[1].UsageQuantity)
	s.Empty(records[1].Error)
}

func (s *UsageRepoIntegrationTestSuite) Test_Save_DuplicateID() {
	ctx := context.Background()
	rec := usage.NewSuccessRecord("gemini-pro", "a", "b")

	s.NoError(s.usageRepo.Save(ctx, rec))
	err := s.usageRepo.Save(ctx, rec)

	s.ErrorIs(err, apperror.ErrConflict)
}

func (s *UsageRepoIntegrationTestSuite) Test_ListRecent_FiltersServiceAndLimit() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.NoError(s.usageRepo.Save(ctx, usage.NewSuccessRecord("gemini-pro", "q", "a")))
	}

	records, err := s.usageRepo.ListRecent(ctx, usage.ServiceGemini, 2)
	s.NoError(err)
	s.Len(records, 2)

	other, err := s.usageRepo.ListRecent(ctx, "OpenAI", 10)
	s.NoError(err)
	s.Empty(other)
}
