package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	pantrysvc "github.com/spicesync/spicesync/internal/application/pantry"
	domain "github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/infrastructure/persistence/memory"
	"github.com/spicesync/spicesync/internal/ports/inbound"
	"github.com/spicesync/spicesync/internal/ports/outbound"
	"github.com/spicesync/spicesync/test/testutils"
)

type WorkflowTestSuite struct {
	suite.Suite
	ctx      context.Context
	source   *testutils.MockFrameSource
	vision   *testutils.MockVisionService
	pantry   *pantrysvc.Service
	workflow *Workflow
	factory  *testutils.IngredientFactory
}

func (s *WorkflowTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.source = new(testutils.MockFrameSource)
	s.vision = new(testutils.MockVisionService)
	s.pantry = pantrysvc.NewService(memory.NewStore(), zaptest.NewLogger(s.T()))
	s.workflow = NewWorkflow(s.source, s.vision, s.pantry, zaptest.NewLogger(s.T()))
	s.factory = testutils.NewIngredientFactory(time.Now().UnixNano())
}

func (s *WorkflowTestSuite) TestFullScanSession() {
	frame := outbound.Frame{Data: []byte("jpeg bytes"), MIMEType: "image/jpeg"}
	recognized := s.factory.Ingredients(1)

	s.source.On("Acquire", mock.Anything).Return(nil).Once()
	s.source.On("Still", mock.Anything).Return(frame, nil).Once()
	s.source.On("Release").Return().Once()
	s.vision.On("RecognizeIngredients", mock.Anything, frame).
		Return(recognized, nil).Once()

	s.Require().NoError(s.workflow.StartCapture(s.ctx))
	s.Equal(inbound.ScanStateCapturing, s.workflow.State())

	s.Require().NoError(s.workflow.Capture(s.ctx))
	s.Equal(inbound.ScanStateReview, s.workflow.State())
	s.Equal(recognized, s.workflow.ReviewItems())

	committed, err := s.workflow.Commit(s.ctx)
	s.Require().NoError(err)
	s.True(committed)
	s.Equal(inbound.ScanStateCommitted, s.workflow.State())
	s.Empty(s.workflow.ReviewItems())

	// The reviewed items landed in the pantry verbatim.
	s.Equal(recognized, s.pantry.Items(s.ctx))

	// The device was released before the AI call, exactly once.
	s.Equal(1, s.source.Releases())
	s.source.AssertExpectations(s.T())
	s.vision.AssertExpectations(s.T())
}

func (s *WorkflowTestSuite) TestStartCapture() {
	s.Run("Denied_ShouldStayIdle", func() {
		s.source.On("Acquire", mock.Anything).Return(outbound.ErrCaptureDenied).Once()

		err := s.workflow.StartCapture(s.ctx)
		s.ErrorIs(err, outbound.ErrCaptureDenied)
		s.Equal(inbound.ScanStateIdle, s.workflow.State())
		s.Zero(s.source.Releases())
	})

	s.Run("AlreadyCapturing_ShouldBeNoOp", func() {
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.Require().NoError(s.workflow.StartCapture(s.ctx))

		// A second start never re-acquires.
		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.source.AssertNumberOfCalls(s.T(), "Acquire", 2)
	})
}

func (s *WorkflowTestSuite) TestCapture() {
	s.Run("WithoutStart_ShouldError", func() {
		err := s.workflow.Capture(s.ctx)
		s.ErrorIs(err, ErrNotCapturing)
	})

	s.Run("StillFails_ShouldReleaseAndReturnToIdle", func() {
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.source.On("Still", mock.Anything).
			Return(outbound.Frame{}, errors.New("device wedged")).Once()
		s.source.On("Release").Return().Once()

		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.Error(s.workflow.Capture(s.ctx))

		s.Equal(inbound.ScanStateIdle, s.workflow.State())
		s.Equal(1, s.source.Releases())
		s.vision.AssertNotCalled(s.T(), "RecognizeIngredients")
	})

	s.Run("RecognitionFails_ShouldReleaseAndReturnToIdle", func() {
		frame := outbound.Frame{Data: []byte("x"), MIMEType: "image/jpeg"}
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.source.On("Still", mock.Anything).Return(frame, nil).Once()
		s.source.On("Release").Return().Once()
		s.vision.On("RecognizeIngredients", mock.Anything, frame).
			Return(nil, errors.New("gateway unreachable")).Once()

		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.Error(s.workflow.Capture(s.ctx))

		s.Equal(inbound.ScanStateIdle, s.workflow.State())
		s.Empty(s.workflow.ReviewItems())
	})

	s.Run("EmptyRecognition_IsStillReviewable", func() {
		frame := outbound.Frame{Data: []byte("x"), MIMEType: "image/jpeg"}
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.source.On("Still", mock.Anything).Return(frame, nil).Once()
		s.source.On("Release").Return().Once()
		s.vision.On("RecognizeIngredients", mock.Anything, frame).
			Return([]domain.Ingredient{}, nil).Once()

		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.Require().NoError(s.workflow.Capture(s.ctx))

		s.Equal(inbound.ScanStateReview, s.workflow.State())
		s.Empty(s.workflow.ReviewItems())
	})
}

func (s *WorkflowTestSuite) TestSubmit() {
	s.Run("FromIdle_ShouldRecognize", func() {
		recognized := s.factory.Ingredients(2)
		s.vision.On("RecognizeIngredients", mock.Anything,
			outbound.Frame{Data: []byte("raw"), MIMEType: "image/png"}).
			Return(recognized, nil).Once()

		s.Require().NoError(s.workflow.Submit(s.ctx, []byte("raw"), "image/png"))
		s.Equal(inbound.ScanStateReview, s.workflow.State())
		s.Equal(recognized, s.workflow.ReviewItems())
		s.Zero(s.source.Releases())
	})

	s.Run("WhileCapturing_ShouldReleaseDevice", func() {
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.source.On("Release").Return().Once()
		s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
			Return([]domain.Ingredient{}, nil).Once()

		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.Require().NoError(s.workflow.Submit(s.ctx, []byte("raw"), "image/jpeg"))

		s.Equal(1, s.source.Releases())
	})
}

func (s *WorkflowTestSuite) TestCommit() {
	s.Run("WithoutReview_ShouldBeInert", func() {
		committed, err := s.workflow.Commit(s.ctx)
		s.Require().NoError(err)
		s.False(committed)
		s.Empty(s.pantry.Items(s.ctx))
	})

	s.Run("EmptyReviewList_ShouldBeInert", func() {
		s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
			Return([]domain.Ingredient{}, nil).Once()
		s.Require().NoError(s.workflow.Submit(s.ctx, []byte("raw"), "image/jpeg"))
		s.Require().Equal(inbound.ScanStateReview, s.workflow.State())

		committed, err := s.workflow.Commit(s.ctx)
		s.Require().NoError(err)
		s.False(committed)
		s.Equal(inbound.ScanStateReview, s.workflow.State())
	})
}

func (s *WorkflowTestSuite) TestCancel() {
	s.Run("WhileCapturing_ShouldReleaseDevice", func() {
		s.source.On("Acquire", mock.Anything).Return(nil).Once()
		s.source.On("Release").Return().Once()

		s.Require().NoError(s.workflow.StartCapture(s.ctx))
		s.workflow.Cancel()

		s.Equal(inbound.ScanStateIdle, s.workflow.State())
		s.Equal(1, s.source.Releases())
	})

	s.Run("FromReview_ShouldDiscardItems", func() {
		s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
			Return(s.factory.Ingredients(2), nil).Once()
		s.Require().NoError(s.workflow.Submit(s.ctx, []byte("raw"), "image/jpeg"))
		s.Require().NotEmpty(s.workflow.ReviewItems())

		s.workflow.Cancel()

		s.Equal(inbound.ScanStateIdle, s.workflow.State())
		s.Empty(s.workflow.ReviewItems())
		s.Empty(s.pantry.Items(s.ctx))
	})
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}
