package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockVideoJobRepository is a mock implementation of VideoJobRepository
type MockVideoJobRepository struct {
	mock.Mock
}

func (m *MockVideoJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.VideoJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.VideoJob), args.Error(1)
}

func (m *MockVideoJobRepository) UpdateStatus(ctx context.Context, id string, status domain.VideoJobStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockVideoJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVideoProcessor is a mock implementation of VideoProcessor
type MockVideoProcessor struct {
	mock.Mock
}

func (m *MockVideoProcessor) Process(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestVideoWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestVideoWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.VideoJob{}, nil)

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockService.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

// TestVideoWorker_ProcessJobs_Success tests successful job processing
func TestVideoWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	job := &domain.VideoJob{
		ID:      "job-1",
		VideoID: "vid-1",
		Status:  domain.VideoJobStatusRunning,
		Retries: 0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.VideoJob{job}, nil)
	mockService.On("Process", mock.Anything, "vid-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.VideoJobStatusCompleted, "").Return(nil)

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockService.AssertExpectations(t)
}

// TestVideoWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestVideoWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	job := &domain.VideoJob{
		ID:      "job-1",
		VideoID: "vid-1",
		Status:  domain.VideoJobStatusRunning,
		Retries: 0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.VideoJob{job}, nil)
	mockService.On("Process", mock.Anything, "vid-1").Return(errors.New("transcript fetch failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.VideoJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockService.AssertExpectations(t)
}

// TestVideoWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestVideoWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	job := &domain.VideoJob{
		ID:      "job-1",
		VideoID: "vid-1",
		Status:  domain.VideoJobStatusRunning,
		Retries: 2, // Already retried twice
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.VideoJob{job}, nil)
	mockService.On("Process", mock.Anything, "vid-1").Return(errors.New("transcript fetch failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.VideoJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockService.AssertExpectations(t)
}

// TestVideoWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestVideoWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	jobs := []*domain.VideoJob{
		{ID: "job-1", VideoID: "vid-1", Status: domain.VideoJobStatusRunning},
		{ID: "job-2", VideoID: "vid-2", Status: domain.VideoJobStatusRunning},
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(jobs, nil)

	mockService.On("Process", mock.Anything, "vid-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.VideoJobStatusCompleted, "").Return(nil)

	mockService.On("Process", mock.Anything, "vid-2").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-2", domain.VideoJobStatusCompleted, "").Return(nil)

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockService.AssertExpectations(t)
}

// TestVideoWorker_ProcessJobs_RepositoryError tests repository error handling
func TestVideoWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockVideoJobRepository)
	mockService := new(MockVideoProcessor)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(nil, errors.New("database error"))

	worker := NewVideoWorker(mockRepo, mockService)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim pending jobs")
	mockRepo.AssertExpectations(t)
}
