package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"loan-compare/internal/dto"
	"loan-compare/internal/models"
	"loan-compare/internal/repositories"
	"loan-compare/internal/services"
	"loan-compare/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAdminHandler(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

type AdminHandlerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	users        *service_mocks.MockUserServiceInterface
	applications *service_mocks.MockApplicationServiceInterface
	catalog      *service_mocks.MockCatalogServiceInterface
	questions    *service_mocks.MockQuestionServiceInterface
	audit        *service_mocks.MockAuditServiceInterface
	handler      *AdminHandler
	e            *echo.Echo
	adminID      uuid.UUID
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = service_mocks.NewMockUserServiceInterface(s.ctrl)
	s.applications = service_mocks.NewMockApplicationServiceInterface(s.ctrl)
	s.catalog = service_mocks.NewMockCatalogServiceInterface(s.ctrl)
	s.questions = service_mocks.NewMockQuestionServiceInterface(s.ctrl)
	s.audit = service_mocks.NewMockAuditServiceInterface(s.ctrl)
	s.handler = NewAdminHandler(s.users, s.applications, s.catalog, s.questions, s.audit)
	s.e = newTestEcho()
	s.adminID = uuid.New()
}

func (s *AdminHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AdminHandlerSuite) request(method, target string, body interface{}, params ...string) (echo.Context, *bytes.Buffer, func() int) {
	c, rec := jsonContext(s.e, method, target, body)
	withParams(c, params...)
	asUser(c, s.adminID, true)
	return c, rec.Body, func() int { return rec.Code }
}

func (s *AdminHandlerSuite) testUser(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		Role:     role,
	}
}

func (s *AdminHandlerSuite) TestListUsers() {
	users := []*models.User{s.testUser(models.RoleApplicant), s.testUser(models.RoleApplicant)}
	s.users.EXPECT().
		ListUsers(gomock.Any(), repositories.UserFilter{Role: models.RoleApplicant, Query: "asha"}, 0, 20).
		Return(users, int64(2), nil)

	c, body, code := s.request(http.MethodGet, "/admin/users?role=applicant&q=asha", nil)
	s.Require().NoError(s.handler.ListUsers(c))
	s.Equal(http.StatusOK, code())

	var resp dto.UsersListResponse
	s.Require().NoError(json.Unmarshal(body.Bytes(), &resp))
	s.Len(resp.Users, 2)
	s.Equal(int64(2), resp.Total)
	s.Equal(20, resp.Limit)
}

func (s *AdminHandlerSuite) TestListUsers_InvalidLimit() {
	c, _, _ := s.request(http.MethodGet, "/admin/users?limit=1000", nil)
	s.Error(s.handler.ListUsers(c))
}

func (s *AdminHandlerSuite) TestGetUserByID() {
	tests := []struct {
		name       string
		userID     string
		setup      func(id uuid.UUID)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "found",
			userID: uuid.NewString(),
			setup: func(id uuid.UUID) {
				u := s.testUser(models.RoleApplicant)
				u.ID = id
				s.users.EXPECT().GetUser(gomock.Any(), id).Return(u, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid id",
			userID:     "invalid-uuid",
			setup:      func(uuid.UUID) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "USER_003",
		},
		{
			name:   "not found",
			userID: uuid.NewString(),
			setup: func(id uuid.UUID) {
				s.users.EXPECT().GetUser(gomock.Any(), id).Return(nil, services.ErrUserNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_001",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			id, _ := uuid.Parse(tt.userID)
			tt.setup(id)

			c, body, code := s.request(http.MethodGet, "/admin/users/"+tt.userID, nil, "userId", tt.userID)
			s.Require().NoError(s.handler.GetUserByID(c))
			s.Equal(tt.wantStatus, code())
			if tt.wantCode != "" {
				var resp ErrorResponse
				s.Require().NoError(json.Unmarshal(body.Bytes(), &resp))
				s.Equal(tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func (s *AdminHandlerSuite) TestUnlockUser() {
	locked := s.testUser(models.RoleApplicant)
	s.users.EXPECT().
		UnlockUser(gomock.Any(), gomock.Any(), locked.ID).
		DoAndReturn(func(_ context.Context, actor services.Actor, _ uuid.UUID) (*models.User, error) {
			s.Equal(s.adminID, actor.UserID)
			return locked, nil
		})

	c, _, code := s.request(http.MethodPost, "/admin/users/x/unlock", nil, "userId", locked.ID.String())
	s.Require().NoError(s.handler.UnlockUser(c))
	s.Equal(http.StatusOK, code())
}

func (s *AdminHandlerSuite) TestChangeUserRole() {
	s.Run("promotes", func() {
		u := s.testUser(models.RoleAdmin)
		s.users.EXPECT().ChangeRole(gomock.Any(), gomock.Any(), u.ID, models.RoleAdmin).Return(u, nil)

		c, _, code := s.request(http.MethodPut, "/admin/users/x/role", map[string]string{"role": "admin"}, "userId", u.ID.String())
		s.Require().NoError(s.handler.ChangeUserRole(c))
		s.Equal(http.StatusOK, code())
	})

	s.Run("own account", func() {
		s.users.EXPECT().ChangeRole(gomock.Any(), gomock.Any(), s.adminID, models.RoleApplicant).Return(nil, services.ErrCannotModifySelf)

		c, body, code := s.request(http.MethodPut, "/admin/users/x/role", map[string]string{"role": "applicant"}, "userId", s.adminID.String())
		s.Require().NoError(s.handler.ChangeUserRole(c))
		s.Equal(http.StatusUnprocessableEntity, code())
		s.Contains(body.String(), "USER_004")
	})

	s.Run("unknown role", func() {
		c, _, _ := s.request(http.MethodPut, "/admin/users/x/role", map[string]string{"role": "root"}, "userId", uuid.NewString())
		s.Error(s.handler.ChangeUserRole(c))
	})
}

func (s *AdminHandlerSuite) TestDeleteUser() {
	target := uuid.New()
	s.users.EXPECT().DeleteUser(gomock.Any(), gomock.Any(), target).Return(nil)

	c, _, code := s.request(http.MethodDelete, "/admin/users/x", nil, "userId", target.String())
	s.Require().NoError(s.handler.DeleteUser(c))
	s.Equal(http.StatusOK, code())
}

func (s *AdminHandlerSuite) TestListApplications_Filters() {
	s.applications.EXPECT().
		ListApplications(gomock.Any(), repositories.ApplicationFilter{Status: models.ApplicationStatusPending, LoanType: models.LoanTypeCar}, 1, 20).
		Return([]*models.LoanApplication{}, int64(0), nil)

	c, body, code := s.request(http.MethodGet, "/admin/applications?status=pending&loanType=car", nil)
	s.Require().NoError(s.handler.ListApplications(c))
	s.Equal(http.StatusOK, code())

	var resp dto.ApplicationListResponse
	s.Require().NoError(json.Unmarshal(body.Bytes(), &resp))
	s.Empty(resp.Applications)
	s.Equal(1, resp.Pagination.Page)
}

func (s *AdminHandlerSuite) TestListApplications_RejectsUnknownStatus() {
	c, _, _ := s.request(http.MethodGet, "/admin/applications?status=lost", nil)
	s.Error(s.handler.ListApplications(c))
}

func (s *AdminHandlerSuite) TestUpdateApplicationStatus() {
	id := uuid.New()

	s.Run("approve", func() {
		app := &models.LoanApplication{ID: id, Status: models.ApplicationStatusApproved}
		s.applications.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), id, models.ApplicationStatusApproved, "looks good").Return(app, nil)

		c, _, code := s.request(http.MethodPut, "/admin/applications/x/status",
			map[string]string{"status": "approved", "notes": "looks good"}, "id", id.String())
		s.Require().NoError(s.handler.UpdateApplicationStatus(c))
		s.Equal(http.StatusOK, code())
	})

	s.Run("forbidden transition", func() {
		s.applications.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), id, models.ApplicationStatusRejected, "").Return(nil, services.ErrStatusChangeForbidden)

		c, body, code := s.request(http.MethodPut, "/admin/applications/x/status",
			map[string]string{"status": "rejected"}, "id", id.String())
		s.Require().NoError(s.handler.UpdateApplicationStatus(c))
		s.Equal(http.StatusUnprocessableEntity, code())
		s.Contains(body.String(), "APPLICATION_005")
	})

	s.Run("applicant statuses are not settable", func() {
		c, _, _ := s.request(http.MethodPut, "/admin/applications/x/status",
			map[string]string{"status": "pending_documents"}, "id", id.String())
		s.Error(s.handler.UpdateApplicationStatus(c))
	})
}

func (s *AdminHandlerSuite) TestExportApplications() {
	s.applications.EXPECT().
		ExportApplications(gomock.Any(), gomock.Any(), repositories.ApplicationFilter{Status: models.ApplicationStatusApproved}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ services.Actor, _ repositories.ApplicationFilter, w io.Writer) (int, error) {
			_, err := w.Write([]byte("PK\x03\x04"))
			return 3, err
		})

	c, body, code := s.request(http.MethodGet, "/admin/applications/export?status=approved", nil)
	s.Require().NoError(s.handler.ExportApplications(c))
	s.Equal(http.StatusOK, code())
	s.Equal(xlsxContentType, c.Response().Header().Get(echo.HeaderContentType))
	s.Contains(c.Response().Header().Get(echo.HeaderContentDisposition), "attachment; filename=\"applications-")
	s.Equal("PK\x03\x04", body.String())
}

func (s *AdminHandlerSuite) TestExportApplications_FailureIsJSON() {
	s.applications.EXPECT().
		ExportApplications(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(0, errors.New("disk full"))

	c, body, code := s.request(http.MethodGet, "/admin/applications/export", nil)
	s.Require().NoError(s.handler.ExportApplications(c))
	s.Equal(http.StatusInternalServerError, code())
	s.Contains(body.String(), "SYSTEM_001")
}

func (s *AdminHandlerSuite) TestCreateBankOffer() {
	payload := map[string]interface{}{
		"id":            "federal-bank",
		"name":          "Federal Bank",
		"rating":        4.1,
		"features":      []string{"Mobile Banking"},
		"accountTypes":  []string{"Savings"},
		"locations":     []string{"Kerala"},
		"interestRates": map[string]float64{"savings": 3.5, "personal": 11.5},
	}

	s.Run("created", func() {
		s.catalog.EXPECT().
			CreateOffer(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ services.Actor, offer *models.BankOffer) error {
				s.Equal("federal-bank", offer.ID)
				s.True(offer.Active)
				s.InDelta(11.5, offer.InterestRates.Personal, 0.0001)
				return nil
			})

		c, _, code := s.request(http.MethodPost, "/admin/banks", payload)
		s.Require().NoError(s.handler.CreateBankOffer(c))
		s.Equal(http.StatusCreated, code())
	})

	s.Run("read-only catalog", func() {
		s.catalog.EXPECT().CreateOffer(gomock.Any(), gomock.Any(), gomock.Any()).Return(services.ErrCatalogReadOnly)

		c, _, code := s.request(http.MethodPost, "/admin/banks", payload)
		s.Require().NoError(s.handler.CreateBankOffer(c))
		s.Equal(http.StatusServiceUnavailable, code())
	})

	s.Run("bad slug", func() {
		bad := map[string]interface{}{"id": "Federal Bank", "name": "Federal Bank"}
		c, _, _ := s.request(http.MethodPost, "/admin/banks", bad)
		s.Error(s.handler.CreateBankOffer(c))
	})
}

func (s *AdminHandlerSuite) TestUpdateBankOffer_UsesPathID() {
	s.catalog.EXPECT().
		UpdateOffer(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ services.Actor, offer *models.BankOffer) error {
			s.Equal("ally", offer.ID)
			return nil
		})

	c, _, code := s.request(http.MethodPut, "/admin/banks/ally",
		map[string]interface{}{"id": "something-else", "name": "Ally Bank"}, "id", "ally")
	s.Require().NoError(s.handler.UpdateBankOffer(c))
	s.Equal(http.StatusOK, code())
}

func (s *AdminHandlerSuite) TestSetBankOfferActive() {
	offer := sampleOffers()[0]
	offer.Active = false
	s.catalog.EXPECT().SetOfferActive(gomock.Any(), gomock.Any(), "chase", false).Return(&offer, nil)

	c, body, code := s.request(http.MethodPut, "/admin/banks/chase/active", map[string]bool{"active": false}, "id", "chase")
	s.Require().NoError(s.handler.SetBankOfferActive(c))
	s.Equal(http.StatusOK, code())
	s.Contains(body.String(), `"active":false`)
}

func (s *AdminHandlerSuite) TestSetBankOfferActive_RequiresFlag() {
	c, _, _ := s.request(http.MethodPut, "/admin/banks/chase/active", map[string]string{}, "id", "chase")
	s.Error(s.handler.SetBankOfferActive(c))
}

func (s *AdminHandlerSuite) TestListBankOffers() {
	s.catalog.EXPECT().ListAllOffers(gomock.Any()).Return(sampleOffers(), nil)

	c, _, code := s.request(http.MethodGet, "/admin/banks", nil)
	s.Require().NoError(s.handler.ListBankOffers(c))
	s.Equal(http.StatusOK, code())
}

func (s *AdminHandlerSuite) TestQuestionManagement() {
	id := uuid.New()
	stored := models.LoanQuestion{ID: id, LoanType: models.LoanTypeCar, Field: "vehicleMake", Type: models.QuestionTypeText, Label: "Vehicle make", SequenceOrder: 6}

	s.Run("list", func() {
		s.questions.EXPECT().ListQuestions(gomock.Any(), models.LoanTypeCar).Return([]models.LoanQuestion{stored}, nil)

		c, body, code := s.request(http.MethodGet, "/admin/loan-types/car/questions", nil, "loanType", "car")
		s.Require().NoError(s.handler.ListQuestions(c))
		s.Equal(http.StatusOK, code())

		var resp dto.QuestionnaireResponse
		s.Require().NoError(json.Unmarshal(body.Bytes(), &resp))
		s.Equal(dto.QuestionSourceCustom, resp.Source)
		s.Equal(id.String(), resp.Questions[0].ID)
	})

	s.Run("create", func() {
		s.questions.EXPECT().
			CreateQuestion(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ services.Actor, q *models.LoanQuestion) error {
				s.Equal("vehicleMake", q.Field)
				q.ID = id
				return nil
			})

		c, _, code := s.request(http.MethodPost, "/admin/questions", map[string]interface{}{
			"loanType": "car",
			"field":    "vehicleMake",
			"type":     "text",
			"label":    "Vehicle make",
			"required": true,
		})
		s.Require().NoError(s.handler.CreateQuestion(c))
		s.Equal(http.StatusCreated, code())
	})

	s.Run("create radio without options", func() {
		c, _, _ := s.request(http.MethodPost, "/admin/questions", map[string]interface{}{
			"loanType": "car",
			"field":    "fuel",
			"type":     "radio",
			"label":    "Fuel",
		})
		s.Error(s.handler.CreateQuestion(c))
	})

	s.Run("duplicate field", func() {
		s.questions.EXPECT().CreateQuestion(gomock.Any(), gomock.Any(), gomock.Any()).Return(services.ErrQuestionFieldExists)

		c, _, code := s.request(http.MethodPost, "/admin/questions", map[string]interface{}{
			"loanType": "car",
			"field":    "vehicleMake",
			"type":     "text",
			"label":    "Vehicle make",
		})
		s.Require().NoError(s.handler.CreateQuestion(c))
		s.Equal(http.StatusConflict, code())
	})

	s.Run("update", func() {
		updated := stored
		updated.Label = "Make"
		s.questions.EXPECT().UpdateQuestion(gomock.Any(), gomock.Any(), id, gomock.Any()).Return(&updated, nil)

		c, _, code := s.request(http.MethodPut, "/admin/questions/x", map[string]string{"label": "Make"}, "id", id.String())
		s.Require().NoError(s.handler.UpdateQuestion(c))
		s.Equal(http.StatusOK, code())
	})

	s.Run("delete", func() {
		s.questions.EXPECT().DeleteQuestion(gomock.Any(), gomock.Any(), id).Return(nil)

		c, _, code := s.request(http.MethodDelete, "/admin/questions/x", nil, "id", id.String())
		s.Require().NoError(s.handler.DeleteQuestion(c))
		s.Equal(http.StatusNoContent, code())
	})

	s.Run("delete invalid id", func() {
		c, body, _ := s.request(http.MethodDelete, "/admin/questions/x", nil, "id", "x")
		s.Require().NoError(s.handler.DeleteQuestion(c))
		s.Contains(body.String(), "QUESTION_002")
	})

	s.Run("move", func() {
		moved := stored
		moved.SequenceOrder = 5
		s.questions.EXPECT().MoveQuestion(gomock.Any(), gomock.Any(), id, repositories.MoveUp).Return(&moved, nil)

		c, _, code := s.request(http.MethodPost, "/admin/questions/x/move", map[string]string{"direction": "up"}, "id", id.String())
		s.Require().NoError(s.handler.MoveQuestion(c))
		s.Equal(http.StatusOK, code())
	})

	s.Run("move past the edge", func() {
		s.questions.EXPECT().MoveQuestion(gomock.Any(), gomock.Any(), id, repositories.MoveDown).Return(nil, services.ErrQuestionCannotMove)

		c, body, code := s.request(http.MethodPost, "/admin/questions/x/move", map[string]string{"direction": "down"}, "id", id.String())
		s.Require().NoError(s.handler.MoveQuestion(c))
		s.Equal(http.StatusUnprocessableEntity, code())
		s.Contains(body.String(), "QUESTION_004")
	})

	s.Run("move sideways", func() {
		c, _, _ := s.request(http.MethodPost, "/admin/questions/x/move", map[string]string{"direction": "left"}, "id", id.String())
		s.Error(s.handler.MoveQuestion(c))
	})

	s.Run("seed", func() {
		s.questions.EXPECT().SeedDefaults(gomock.Any(), gomock.Any(), models.LoanTypeCar).Return(7, nil)

		c, body, code := s.request(http.MethodPost, "/admin/loan-types/car/questions/seed", nil, "loanType", "car")
		s.Require().NoError(s.handler.SeedQuestions(c))
		s.Equal(http.StatusOK, code())
		s.JSONEq(`{"loanType":"car","created":7}`, body.String())
	})
}

func (s *AdminHandlerSuite) TestListAuditLogs() {
	userID := uuid.New()
	s.audit.EXPECT().
		ListAuditLogs(gomock.Any(), services.AuditLogFilter{UserID: &userID, Action: models.AuditActionRoleChanged}, 0, 50).
		Return([]*models.AuditLog{{ID: uuid.New(), Action: models.AuditActionRoleChanged, Resource: "user"}}, int64(1), nil)

	c, body, code := s.request(http.MethodGet, "/admin/audit-logs?userId="+userID.String()+"&action=role_changed&limit=50", nil)
	s.Require().NoError(s.handler.ListAuditLogs(c))
	s.Equal(http.StatusOK, code())

	var resp dto.AuditLogsListResponse
	s.Require().NoError(json.Unmarshal(body.Bytes(), &resp))
	s.Len(resp.Logs, 1)
	s.Equal(50, resp.Limit)
}

func (s *AdminHandlerSuite) TestListAuditLogs_Validation() {
	s.Run("bad user id", func() {
		c, body, _ := s.request(http.MethodGet, "/admin/audit-logs?userId=nope", nil)
		s.Require().NoError(s.handler.ListAuditLogs(c))
		s.Contains(body.String(), "USER_003")
	})

	s.Run("limit too large", func() {
		c, _, code := s.request(http.MethodGet, "/admin/audit-logs?limit=101", nil)
		s.Require().NoError(s.handler.ListAuditLogs(c))
		s.Equal(http.StatusBadRequest, code())
	})

	s.Run("empty trail", func() {
		s.audit.EXPECT().ListAuditLogs(gomock.Any(), services.AuditLogFilter{}, 0, 20).Return(nil, int64(0), nil)

		c, body, _ := s.request(http.MethodGet, "/admin/audit-logs", nil)
		s.Require().NoError(s.handler.ListAuditLogs(c))
		s.Contains(body.String(), `"logs":[]`)
	})
}
