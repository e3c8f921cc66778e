// ABOUTME: GoMock double for the goals Store interface, in mockgen's layout.
// ABOUTME: Lets orchestrator and lifecycle tests script store failures call by call.
package goals_test

import (
	context "context"
	reflect "reflect"

	uuid "github.com/google/uuid"
	goals "github.com/harperreed/bodygoal/internal/goals"
	models "github.com/harperreed/bodygoal/internal/models"
	gomock "go.uber.org/mock/gomock"
)

// MockStore is a mock of Store interface.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
	isgomock struct{}
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder struct {
	mock *MockStore
}

// NewMockStore creates a new mock instance.
func NewMockStore(ctrl *gomock.Controller) *MockStore {
	mock := &MockStore{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStore) EXPECT() *MockStoreMockRecorder {
	return m.recorder
}

// CreateGoal mocks base method.
func (m *MockStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateGoal", ctx, goal)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateGoal indicates an expected call of CreateGoal.
func (mr *MockStoreMockRecorder) CreateGoal(ctx, goal any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateGoal", reflect.TypeOf((*MockStore)(nil).CreateGoal), ctx, goal)
}

// DeactivateAllGoals mocks base method.
func (m *MockStore) DeactivateAllGoals(ctx context.Context, userID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeactivateAllGoals", ctx, userID)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeactivateAllGoals indicates an expected call of DeactivateAllGoals.
func (mr *MockStoreMockRecorder) DeactivateAllGoals(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeactivateAllGoals", reflect.TypeOf((*MockStore)(nil).DeactivateAllGoals), ctx, userID)
}

// FetchActiveGoal mocks base method.
func (m *MockStore) FetchActiveGoal(ctx context.Context, userID string) (*models.Goal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchActiveGoal", ctx, userID)
	ret0, _ := ret[0].(*models.Goal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchActiveGoal indicates an expected call of FetchActiveGoal.
func (mr *MockStoreMockRecorder) FetchActiveGoal(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchActiveGoal", reflect.TypeOf((*MockStore)(nil).FetchActiveGoal), ctx, userID)
}

// FetchGoalByID mocks base method.
func (m *MockStore) FetchGoalByID(ctx context.Context, goalID uuid.UUID) (*models.Goal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchGoalByID", ctx, goalID)
	ret0, _ := ret[0].(*models.Goal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchGoalByID indicates an expected call of FetchGoalByID.
func (mr *MockStoreMockRecorder) FetchGoalByID(ctx, goalID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchGoalByID", reflect.TypeOf((*MockStore)(nil).FetchGoalByID), ctx, goalID)
}

// FetchLatestMeasurement mocks base method.
func (m *MockStore) FetchLatestMeasurement(ctx context.Context, userID string) (*models.Measurement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchLatestMeasurement", ctx, userID)
	ret0, _ := ret[0].(*models.Measurement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchLatestMeasurement indicates an expected call of FetchLatestMeasurement.
func (mr *MockStoreMockRecorder) FetchLatestMeasurement(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchLatestMeasurement", reflect.TypeOf((*MockStore)(nil).FetchLatestMeasurement), ctx, userID)
}

// FetchRecentMeasurements mocks base method.
func (m *MockStore) FetchRecentMeasurements(ctx context.Context, userID string, days int) ([]*models.Measurement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchRecentMeasurements", ctx, userID, days)
	ret0, _ := ret[0].([]*models.Measurement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchRecentMeasurements indicates an expected call of FetchRecentMeasurements.
func (mr *MockStoreMockRecorder) FetchRecentMeasurements(ctx, userID, days any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchRecentMeasurements", reflect.TypeOf((*MockStore)(nil).FetchRecentMeasurements), ctx, userID, days)
}

// UpdateGoal mocks base method.
func (m *MockStore) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateGoal", ctx, goal)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateGoal indicates an expected call of UpdateGoal.
func (mr *MockStoreMockRecorder) UpdateGoal(ctx, goal any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateGoal", reflect.TypeOf((*MockStore)(nil).UpdateGoal), ctx, goal)
}

// WithUserLock mocks base method.
func (m *MockStore) WithUserLock(ctx context.Context, userID string, fn func(goals.Store) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WithUserLock", ctx, userID, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

// WithUserLock indicates an expected call of WithUserLock.
func (mr *MockStoreMockRecorder) WithUserLock(ctx, userID, fn any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WithUserLock", reflect.TypeOf((*MockStore)(nil).WithUserLock), ctx, userID, fn)
}
