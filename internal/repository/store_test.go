package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/pirotecnica-backend/internal/database"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/repository/repotest"
)

type gormStoreSuite struct {
	repotest.StoreSuite

	container *postgres.PostgresContainer
}

// Runs the shared store behaviour against a real Postgres. Skipped without Docker.
func TestGormStoreSuite(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	suite.Run(t, new(gormStoreSuite))
}

func (s *gormStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, connStr, err := startPostgres(ctx)
	s.Require().NoError(err)
	s.container = container

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))

	s.Store = repository.NewGormStore(db)
}

func (s *gormStoreSuite) TearDownSuite() {
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pirotecnica"),
		postgres.WithUsername("pirotecnica"),
		postgres.WithPassword("pirotecnica"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}
	return container, connStr, nil
}

func TestPageOffsets(t *testing.T) {
	require.False(t, repository.Page{}.Enabled())
	require.Equal(t, 0, repository.Page{}.Offset())
	require.Equal(t, 40, repository.Page{Number: 3, Limit: 20}.Offset())
}
