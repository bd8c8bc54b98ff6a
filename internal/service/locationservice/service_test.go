package locationservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/service/locationservice"
)

// MockLocationRepository é uma implementação mock da interface LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) CreateLocation(ctx context.Context, req domain.CreateLocationRequest) (domain.Location, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Location), args.Error(1)
}

func (m *MockLocationRepository) GetLocationByID(ctx context.Context, id int64) (domain.Location, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Location), args.Error(1)
}

func (m *MockLocationRepository) GetAllLocations(ctx context.Context, includeInactive bool) ([]domain.Location, error) {
	args := m.Called(ctx, includeInactive)
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockLocationRepository) UpdateLocation(ctx context.Context, id int64, req domain.UpdateLocationRequest) (domain.Location, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(domain.Location), args.Error(1)
}

func (m *MockLocationRepository) DeleteLocation(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLocationRepository) GetLocationItems(ctx context.Context, id int64, includeInactive bool) ([]domain.Item, error) {
	args := m.Called(ctx, id, includeInactive)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func strPtr(s string) *string { return &s }

// --- Testes para CreateLocation ---

func TestCreateLocation_Success_TrimsName(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	expected := domain.Location{ID: 1, Name: "Keller", IsActive: true}
	mockRepo.On("CreateLocation", mock.Anything, domain.CreateLocationRequest{Name: "Keller"}).Return(expected, nil)

	result, err := svc.CreateLocation(context.Background(), domain.CreateLocationRequest{Name: "  Keller ", Address: strPtr("  ")})

	assert.NoError(t, err)
	assert.Equal(t, expected, result)
	mockRepo.AssertExpectations(t)
}

func TestCreateLocation_Fail_EmptyName(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	_, err := svc.CreateLocation(context.Background(), domain.CreateLocationRequest{Name: "   "})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "não pode ser vazio")
	mockRepo.AssertNotCalled(t, "CreateLocation")
}

func TestCreateLocation_Fail_BackendValidation(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	repoErr := apperror.NewValidationError("Warehouse with this name already exists")
	mockRepo.On("CreateLocation", mock.Anything, mock.Anything).Return(domain.Location{}, repoErr)

	_, err := svc.CreateLocation(context.Background(), domain.CreateLocationRequest{Name: "Keller"})

	assert.Equal(t, repoErr, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateLocation_Fail_UntypedError(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("CreateLocation", mock.Anything, mock.Anything).Return(domain.Location{}, errors.New("boom"))

	_, err := svc.CreateLocation(context.Background(), domain.CreateLocationRequest{Name: "Keller"})

	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Contains(t, err.Error(), "Falha interna ao criar local")
}

// --- Testes para GetLocationByID ---

func TestGetLocationByID_Success(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	expected := domain.Location{ID: 4, Name: "Garage"}
	mockRepo.On("GetLocationByID", mock.Anything, int64(4)).Return(expected, nil)

	result, err := svc.GetLocationByID(context.Background(), 4)

	assert.NoError(t, err)
	assert.Equal(t, expected, result)
	mockRepo.AssertExpectations(t)
}

func TestGetLocationByID_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	_, err := svc.GetLocationByID(context.Background(), 0)

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetLocationByID")
}

func TestGetLocationByID_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("GetLocationByID", mock.Anything, int64(9)).Return(domain.Location{}, apperror.NewNotFoundError("Warehouse not found"))

	_, err := svc.GetLocationByID(context.Background(), 9)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- Testes para GetAllLocations ---

func TestGetAllLocations_Success(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	expected := []domain.Location{{ID: 1, Name: "L1"}, {ID: 2, Name: "L2"}}
	mockRepo.On("GetAllLocations", mock.Anything, false).Return(expected, nil)

	results, err := svc.GetAllLocations(context.Background(), false)

	assert.NoError(t, err)
	assert.Equal(t, expected, results)
	mockRepo.AssertExpectations(t)
}

func TestGetAllLocations_Fail_Transport(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("GetAllLocations", mock.Anything, true).Return([]domain.Location{}, apperror.NewTransportError("Backend inacessível", 0, nil))

	_, err := svc.GetAllLocations(context.Background(), true)

	assert.True(t, apperror.Is(err, apperror.KindTransport))
	mockRepo.AssertExpectations(t)
}

// --- Testes para UpdateLocation ---

func TestUpdateLocation_Success(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	want := domain.UpdateLocationRequest{Name: strPtr("Dachboden")}
	mockRepo.On("UpdateLocation", mock.Anything, int64(3), want).Return(domain.Location{ID: 3, Name: "Dachboden"}, nil)

	result, err := svc.UpdateLocation(context.Background(), 3, domain.UpdateLocationRequest{Name: strPtr(" Dachboden ")})

	assert.NoError(t, err)
	assert.Equal(t, "Dachboden", result.Name)
	mockRepo.AssertExpectations(t)
}

func TestUpdateLocation_Fail_BlankName(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	_, err := svc.UpdateLocation(context.Background(), 3, domain.UpdateLocationRequest{Name: strPtr("  ")})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateLocation")
}

// --- Testes para DeleteLocation ---

func TestDeleteLocation_Success(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("DeleteLocation", mock.Anything, int64(5)).Return(nil)

	err := svc.DeleteLocation(context.Background(), 5)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeleteLocation_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("DeleteLocation", mock.Anything, int64(5)).Return(apperror.NewNotFoundError("Warehouse not found"))

	err := svc.DeleteLocation(context.Background(), 5)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// --- Testes para GetLocationItems ---

func TestGetLocationItems(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	svc := locationservice.NewService(mockRepo, newTestLogger())

	items := []domain.Item{{ID: 1, Code: "a1", Name: "Reis"}}
	mockRepo.On("GetLocationItems", mock.Anything, int64(2), false).Return(items, nil)

	result, err := svc.GetLocationItems(context.Background(), 2, false)

	assert.NoError(t, err)
	assert.Equal(t, items, result)

	_, err = svc.GetLocationItems(context.Background(), -1, false)
	assert.IsType(t, &apperror.ValidationError{}, err)
}
