package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type memoryRepo struct {
	saved     []*usage.Record
	saveErr   error
	listErr   error
	gotLimit  int
	gotSource string
}

func (r *memoryRepo) Save(_ context.Context, rec *usage.Record) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *memoryRepo) ListRecent(_ context.Context, service string, limit int) ([]*usage.Record, error) {
	r.gotSource = service
	r.gotLimit = limit
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.saved, nil
}

func TestRecordUsage_Saves(t *testing.T) {
	repo := &memoryRepo{}
	uc := NewRecordUsageUseCase(repo, logger.NewNopLogger())

	rec := usage.NewSuccessRecord("gemini-pro", "hello", "world")
	require.NoError(t, uc.Execute(context.Background(), rec))

	require.Len(t, repo.saved, 1)
	assert.Equal(t, rec.ID, repo.saved[0].ID)
}

func TestRecordUsage_DuplicateIsSkipped(t *testing.T) {
	repo := &memoryRepo{saveErr: apperror.NewConflict("usage record", "id", "x")}
	uc := NewRecordUsageUseCase(repo, logger.NewNopLogger())

	assert.NoError(t, uc.Execute(context.Background(), usage.NewFailedRecord("gemini-pro", nil)))
}

func TestRecordUsage_SaveError(t *testing.T) {
	cause := errors.New("connection refused")
	uc := NewRecordUsageUseCase(&memoryRepo{saveErr: cause}, logger.NewNopLogger())

	err := uc.Execute(context.Background(), usage.NewFailedRecord("gemini-pro", nil))
	assert.ErrorIs(t, err, cause)
}

func TestRecordUsage_NilRecord(t *testing.T) {
	uc := NewRecordUsageUseCase(&memoryRepo{}, logger.NewNopLogger())
	assert.ErrorIs(t, uc.Execute(context.Background(), nil), apperror.ErrInvalidInput)
}

func TestListUsage_ClampsLimitAndDefaultsService(t *testing.T) {
	repo := &memoryRepo{}
	uc := NewListUsageUseCase(repo, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ListUsageInput{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.gotLimit)
	assert.Equal(t, usage.ServiceGemini, repo.gotSource)

	_, err = uc.Execute(context.Background(), ListUsageInput{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, repo.gotLimit)
}

func TestListUsage_RepositoryError(t *testing.T) {
	uc := NewListUsageUseCase(&memoryRepo{listErr: errors.New("boom")}, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ListUsageInput{})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}
