package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	pantrysvc "github.com/spicesync/spicesync/internal/application/pantry"
	profilesvc "github.com/spicesync/spicesync/internal/application/profile"
	"github.com/spicesync/spicesync/internal/application/recipes"
	scansvc "github.com/spicesync/spicesync/internal/application/scan"
	domain "github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
	"github.com/spicesync/spicesync/internal/infrastructure/capture"
	"github.com/spicesync/spicesync/internal/infrastructure/persistence/memory"
	"github.com/spicesync/spicesync/test/testutils"
)

type APIHandlersTestSuite struct {
	suite.Suite
	vision  *testutils.MockVisionService
	pantry  *pantrysvc.Service
	router  *chi.Mux
	factory *testutils.IngredientFactory
}

func (s *APIHandlersTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	store := memory.NewStore()

	s.vision = new(testutils.MockVisionService)
	s.pantry = pantrysvc.NewService(store, logger)
	profile := profilesvc.NewService(store, logger)
	finder := recipes.NewEngine(s.vision, logger)
	scanner := scansvc.NewWorkflow(capture.NewUnavailable(), s.vision, s.pantry, logger)
	s.factory = testutils.NewIngredientFactory(time.Now().UnixNano())

	h := NewAPIHandlers(s.pantry, profile, finder, scanner, logger)
	s.router = chi.NewRouter()
	s.router.Route("/api/v1", h.Routes)
}

func (s *APIHandlersTestSuite) do(method, path string, body any) (*httptest.ResponseRecorder, APIResponse) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp APIResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (s *APIHandlersTestSuite) TestScanLifecycle() {
	recognized := s.factory.Ingredients(2)
	s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
		Return(recognized, nil).Once()

	rec, resp := s.do(http.MethodPost, "/api/v1/scan", map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg bytes")),
		"mime_type":    "image/jpeg",
	})
	s.Equal(http.StatusOK, rec.Code)
	s.True(resp.Success)

	rec, resp = s.do(http.MethodPost, "/api/v1/scan/commit", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.True(resp.Success)

	s.Len(s.pantry.Items(context.Background()), 2)
}

func (s *APIHandlersTestSuite) TestSubmitScan() {
	s.Run("MissingImage_IsBadRequest", func() {
		rec, resp := s.do(http.MethodPost, "/api/v1/scan", map[string]string{})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.False(resp.Success)
		s.Equal("BAD_REQUEST", resp.Error)
	})

	s.Run("InvalidBase64_IsBadRequest", func() {
		rec, _ := s.do(http.MethodPost, "/api/v1/scan", map[string]string{
			"image_base64": "not base64!!!",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("WhileProcessing_IsConflict", func() {
		started := make(chan struct{})
		gate := make(chan struct{})
		s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-gate
			}).
			Return([]domain.Ingredient{}, nil).Once()

		payload := fmt.Sprintf(`{"image_base64":%q}`,
			base64.StdEncoding.EncodeToString([]byte("first frame")))
		done := make(chan struct{})
		go func() {
			defer close(done)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			s.router.ServeHTTP(httptest.NewRecorder(), req)
		}()
		<-started

		rec, resp := s.do(http.MethodPost, "/api/v1/scan", map[string]string{
			"image_base64": base64.StdEncoding.EncodeToString([]byte("second frame")),
		})
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("SCAN_BUSY", resp.Error)

		close(gate)
		<-done
	})

	s.Run("GatewayFailure_IsBadGateway", func() {
		s.vision.On("RecognizeIngredients", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("gateway down")).Once()

		rec, resp := s.do(http.MethodPost, "/api/v1/scan", map[string]string{
			"image_base64": base64.StdEncoding.EncodeToString([]byte("x")),
		})
		s.Equal(http.StatusBadGateway, rec.Code)
		s.Equal("EXTERNAL_SERVICE_ERROR", resp.Error)
	})
}

func (s *APIHandlersTestSuite) TestCommitScan() {
	s.Run("WithoutReview_IsConflict", func() {
		rec, resp := s.do(http.MethodPost, "/api/v1/scan/commit", nil)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("NOTHING_TO_COMMIT", resp.Error)
	})
}

func (s *APIHandlersTestSuite) TestPantryCRUD() {
	body := []map[string]string{
		{"name": "Milk", "quantity": "1L", "category": "dairy", "freshness": "Fresh"},
	}

	rec, resp := s.do(http.MethodPost, "/api/v1/pantry", body)
	s.Equal(http.StatusCreated, rec.Code)
	s.True(resp.Success)

	rec, _ = s.do(http.MethodGet, "/api/v1/pantry", nil)
	s.Equal(http.StatusOK, rec.Code)

	items := s.pantry.Items(context.Background())
	s.Require().Len(items, 1)
	s.Equal("Milk", items[0].Name)
	s.Equal(domain.CategoryDairy, items[0].Category)

	rec, _ = s.do(http.MethodDelete, "/api/v1/pantry/"+items[0].ID.String(), nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(s.pantry.Items(context.Background()))
}

func (s *APIHandlersTestSuite) TestAddIngredients() {
	s.Run("UnknownCategory_FailsValidation", func() {
		rec, resp := s.do(http.MethodPost, "/api/v1/pantry", []map[string]string{
			{"name": "Peas", "quantity": "1 bag", "category": "frozen"},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("VALIDATION_FAILED", resp.Error)
	})

	s.Run("InvalidID_IsBadRequest", func() {
		rec, _ := s.do(http.MethodDelete, "/api/v1/pantry/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *APIHandlersTestSuite) TestFetchRecipes() {
	s.Run("EmptyPantry_IsANoOp", func() {
		rec, resp := s.do(http.MethodPost, "/api/v1/recipes/fetch", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.True(resp.Success)
		s.Equal("Pantry is empty; nothing fetched", resp.Message)
		s.vision.AssertNotCalled(s.T(), "SuggestRecipes")
	})

	s.Run("StoredDietSeedsPreferences", func() {
		s.Require().NoError(s.pantry.Add(context.Background(), s.factory.Ingredient()))
		_, resp := s.do(http.MethodPut, "/api/v1/profile", map[string]any{
			"diet": []string{"vegan"}, "servings": 2,
		})
		s.True(resp.Success)

		batch := []recipe.Suggestion{testutils.NewSuggestionBuilder().Build()}
		s.vision.On("SuggestRecipes", mock.Anything, mock.Anything, []string{"vegan"}).
			Return(batch, nil).Once()

		rec, _ := s.do(http.MethodPost, "/api/v1/recipes/fetch", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.vision.AssertExpectations(s.T())
	})
}

func (s *APIHandlersTestSuite) TestListRecipes() {
	s.Require().NoError(s.pantry.Add(context.Background(), s.factory.Ingredient()))
	batch := []recipe.Suggestion{
		testutils.NewSuggestionBuilder().WithTitle("Loose").WithMatchScore(50).Build(),
		testutils.NewSuggestionBuilder().WithTitle("Perfect").WithMatchScore(95).Build(),
	}
	s.vision.On("SuggestRecipes", mock.Anything, mock.Anything, mock.Anything).
		Return(batch, nil).Once()
	_, resp := s.do(http.MethodPost, "/api/v1/recipes/fetch", map[string]any{
		"preferences": []string{"anything"},
	})
	s.Require().True(resp.Success)

	rec, resp := s.do(http.MethodGet, "/api/v1/recipes?perfect=true", nil)
	s.Equal(http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	recipesList := data["recipes"].([]any)
	s.Require().Len(recipesList, 1)
	s.Equal("Perfect", recipesList[0].(map[string]any)["title"])
}

func (s *APIHandlersTestSuite) TestProfile() {
	prefs := map[string]any{
		"diet":      []string{"vegetarian"},
		"allergies": []string{"shellfish"},
		"servings":  4,
	}

	rec, resp := s.do(http.MethodPut, "/api/v1/profile", prefs)
	s.Equal(http.StatusOK, rec.Code)
	s.True(resp.Success)

	rec, resp = s.do(http.MethodGet, "/api/v1/profile", nil)
	s.Equal(http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	s.Equal([]any{"vegetarian"}, data["diet"])
	s.Equal(float64(4), data["servings"])
}

func TestAPIHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(APIHandlersTestSuite))
}
