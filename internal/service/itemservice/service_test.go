package itemservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lagerscan/internal/domain"
	apperror "lagerscan/internal/errors"
	"lagerscan/internal/pkg/apiclient"
	"lagerscan/internal/pkg/apiclient/apitest"
	"lagerscan/internal/pkg/logger"
	"lagerscan/internal/repository/itemrepo"
	"lagerscan/internal/service/itemservice"
)

// MockItemRepository é uma implementação mock da interface ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) GetItemByCode(ctx context.Context, code string) (domain.Item, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) CheckoutItem(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockItemRepository) GetAllItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemRepository) DeleteItem(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) MoveItem(ctx context.Context, code string, locationID *int64) (domain.Item, error) {
	args := m.Called(ctx, code, locationID)
	return args.Get(0).(domain.Item), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

// --- Create ---

func TestCreate_Success_TrimsFields(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	want := domain.CreateItemRequest{Name: "Widget", Quantity: strPtr("5 Stück"), LocationID: int64Ptr(2)}
	created := domain.Item{ID: 1, Code: "a1b2c3d4", Name: "Widget", IsActive: true}
	mockRepo.On("CreateItem", mock.Anything, want).Return(created, nil)

	item, err := svc.Create(context.Background(), domain.CreateItemRequest{Name: " Widget ", Quantity: strPtr(" 5 Stück "), LocationID: int64Ptr(2)})

	assert.NoError(t, err)
	assert.Equal(t, created, item)
	mockRepo.AssertExpectations(t)
}

func TestCreate_BlankQuantityIsDropped(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("CreateItem", mock.Anything, domain.CreateItemRequest{Name: "Widget"}).Return(domain.Item{ID: 1}, nil)

	_, err := svc.Create(context.Background(), domain.CreateItemRequest{Name: "Widget", Quantity: strPtr("  ")})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreate_EmptyNameRejectedBeforeNetwork(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	_, err := svc.Create(context.Background(), domain.CreateItemRequest{Name: "   "})

	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "não pode ser vazio")
	mockRepo.AssertNotCalled(t, "CreateItem")
}

func TestCreate_InvalidLocationID(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	_, err := svc.Create(context.Background(), domain.CreateItemRequest{Name: "Widget", LocationID: int64Ptr(0)})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateItem")
}

func TestCreate_UntypedErrorBecomesInternal(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("CreateItem", mock.Anything, mock.Anything).Return(domain.Item{}, errors.New("boom"))

	_, err := svc.Create(context.Background(), domain.CreateItemRequest{Name: "Widget"})

	assert.IsType(t, &apperror.InternalError{}, err)
}

// Contra o backend falso: nenhuma requisição para nome vazio, NotFound para local inexistente.
func TestCreate_AgainstBackend(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	log := logger.NewNopLogger()
	svc := itemservice.NewService(itemrepo.NewItemRepository(apiclient.New(backend.URL, backend.Client(), 0, log), log), log)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateItemRequest{Name: ""})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Zero(t, backend.Requests())

	_, err = svc.Create(ctx, domain.CreateItemRequest{Name: "Widget", LocationID: int64Ptr(7)})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	items, err := svc.List(ctx, domain.ItemFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, items)
}

// --- Lookup / Checkout ---

func TestLookup_TrimsCode(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("GetItemByCode", mock.Anything, "a1b2c3d4").Return(domain.Item{Code: "a1b2c3d4"}, nil)

	item, err := svc.Lookup(context.Background(), " a1b2c3d4\n")

	assert.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", item.Code)
	mockRepo.AssertExpectations(t)
}

func TestLookup_EmptyCode(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	_, err := svc.Lookup(context.Background(), " ")

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetItemByCode")
}

func TestLookup_NotFoundPropagates(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("GetItemByCode", mock.Anything, "nope").Return(domain.Item{}, apperror.NewNotFoundError("Item not found"))

	_, err := svc.Lookup(context.Background(), "nope")

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestCheckout_ThenConflict(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	log := logger.NewNopLogger()
	svc := itemservice.NewService(itemrepo.NewItemRepository(apiclient.New(backend.URL, backend.Client(), 0, log), log), log)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateItemRequest{Name: "Mehl"})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	require.NoError(t, svc.Checkout(ctx, created.Code))

	after, err := svc.Lookup(ctx, created.Code)
	require.NoError(t, err)
	assert.False(t, after.IsActive)

	err = svc.Checkout(ctx, created.Code)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCheckout_EmptyCode(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	err := svc.Checkout(context.Background(), "")

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CheckoutItem")
}

// --- List / Delete / Move ---

func TestList_TrimsSearch(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	items := []domain.Item{{ID: 1, Name: "Schraube"}}
	mockRepo.On("GetAllItems", mock.Anything, domain.ItemFilter{Search: "schr"}).Return(items, nil)

	result, err := svc.List(context.Background(), domain.ItemFilter{Search: "  schr "})

	assert.NoError(t, err)
	assert.Equal(t, items, result)
	mockRepo.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	mockRepo.On("DeleteItem", mock.Anything, int64(3)).Return(nil)
	mockRepo.On("DeleteItem", mock.Anything, int64(4)).Return(apperror.NewNotFoundError("Item not found"))

	assert.NoError(t, svc.Delete(context.Background(), 3))
	assert.IsType(t, &apperror.NotFoundError{}, svc.Delete(context.Background(), 4))
	assert.IsType(t, &apperror.ValidationError{}, svc.Delete(context.Background(), 0))
	mockRepo.AssertExpectations(t)
}

func TestMove(t *testing.T) {
	mockRepo := new(MockItemRepository)
	svc := itemservice.NewService(mockRepo, newTestLogger())

	loc := int64Ptr(2)
	mockRepo.On("MoveItem", mock.Anything, "a1", loc).Return(domain.Item{Code: "a1", LocationID: loc}, nil)

	item, err := svc.Move(context.Background(), "a1", loc)
	assert.NoError(t, err)
	assert.Equal(t, loc, item.LocationID)

	_, err = svc.Move(context.Background(), "a1", int64Ptr(-1))
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertExpectations(t)
}
