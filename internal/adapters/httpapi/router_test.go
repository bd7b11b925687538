package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"venueflow/internal/auth"
	"venueflow/internal/core"
	"venueflow/internal/infra/persistence/memory"
	"venueflow/pkg/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixedNow() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

type testAPI struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore(core.NewDefaultRulesEngine(), memory.WithClock(fixedNow))
	svc := core.NewService(store, core.WithServiceClock(fixedNow))
	seeded, err := svc.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)

	accounts, err := auth.DefaultAccounts()
	require.NoError(t, err)
	dir, err := auth.NewDirectory(accounts)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("router-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	engine, err := NewRouter(Options{
		Service:  svc,
		Accounts: dir,
		Tokens:   issuer,
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
		Now:      fixedNow,
	})
	require.NoError(t, err)
	return &testAPI{engine: engine, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, account string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Account: account, Password: auth.DefaultPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token     string           `json:"token"`
		Principal domain.Principal `json:"principal"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error APIError `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error.Code
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Options{})
	require.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "venueflow_http_requests_total")

	rec = api.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, ErrCodeNotFound, errorCode(t, rec))
}

func TestLoginAndAuthentication(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Account: "sales001", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, ErrCodeUnauthorized, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"account": "sales001"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ErrCodeBadRequest, errorCode(t, rec))

	rec = api.do(t, http.MethodGet, "/api/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := api.login(t, "sales001")
	rec = api.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Principal domain.Principal `json:"principal"`
		RoleLabel string           `json:"role_label"`
		LeaderID  string           `json:"leader_id"`
	}
	decode(t, rec, &me)
	require.Equal(t, "S0000001", me.Principal.StaffNo)
	require.Equal(t, "业务员", me.RoleLabel)
	require.Equal(t, "L0000001", me.LeaderID)
}

func TestBookingApprovalFlow(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales001")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodPost, "/api/v1/bookings", sales, core.BookingInput{RoomID: "r2", Date: "2025-03-10", CustomerID: "c0000001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking domain.Booking
	decode(t, rec, &booking)
	require.Equal(t, domain.BookingPending, booking.Status)
	require.EqualValues(t, 288, booking.Price)

	rec = api.do(t, http.MethodGet, "/api/v1/bookings/pending", sales, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, ErrCodeForbidden, errorCode(t, rec))

	rec = api.do(t, http.MethodGet, "/api/v1/bookings/pending", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	decode(t, rec, &pending)
	require.Len(t, pending.Bookings, 2)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/transitions", sales, transitionRequest{Event: "approve"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/transitions", leader, transitionRequest{Event: "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &booking)
	require.Equal(t, domain.BookingBooked, booking.Status)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/transitions", leader, transitionRequest{Event: "approve"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, ErrCodePreconditionFailed, errorCode(t, rec))
}

func TestBookingErrorsMapToStatusCodes(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales002")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodPost, "/api/v1/bookings", sales, core.BookingInput{RoomID: "r1", Date: "2025-03-10", CustomerID: "c0000003"})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	require.Equal(t, ErrCodeConflict, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/bookings", sales, core.BookingInput{RoomID: "r1", Date: "10/03/2025", CustomerID: "c0000003"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ErrCodeValidationFailed, errorCode(t, rec))

	rec = api.do(t, http.MethodGet, "/api/v1/bookings/missing", leader, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/b1/transitions", leader, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ErrCodeBadRequest, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/b4/transitions", leader, transitionRequest{Event: "cancel"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ErrCodeValidationFailed, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/b1/transitions", leader, transitionRequest{Event: "cancel", Reason: "客户改期"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/b4/transitions", leader, transitionRequest{Event: "cancel", Reason: "客户改期", ExpectedVersion: 99})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/bookings/b4/transitions", leader, transitionRequest{Event: "cancel", Reason: "客户改期"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListBookingsBySales(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales002")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodGet, "/api/v1/bookings?sales=S0000001", sales, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/bookings?sales=S0000001", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Bookings, 3)

	rec = api.do(t, http.MethodGet, "/api/v1/bookings", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Bookings, 1)
	require.Equal(t, "b4", body.Bookings[0].ID)
}

func TestListBookingsBySalesOutsideTeam(t *testing.T) {
	api := newTestAPI(t)
	leader := api.login(t, "leader001")

	_, err := api.store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBooking(domain.Booking{
			RoomID:       "r4",
			Date:         "2025-03-10",
			CustomerName: "外队客户",
			Status:       domain.BookingBooked,
			Sales:        domain.StaffRef{StaffNo: "S0000099", Name: "外队销售"},
		})
		return err
	})
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api/v1/bookings?sales=S0000099", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	decode(t, rec, &body)
	require.Empty(t, body.Bookings)
}

func TestRoomBookingsMaskForeignDetails(t *testing.T) {
	api := newTestAPI(t)
	owner := api.login(t, "sales001")
	other := api.login(t, "sales002")
	path := "/api/v1/rooms/r1/bookings?from=2025-03-01&to=2025-03-31"

	var body struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	rec := api.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Bookings, 1)
	require.Equal(t, "b1", body.Bookings[0].ID)
	require.NotEmpty(t, body.Bookings[0].CustomerName)

	rec = api.do(t, http.MethodGet, path, other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Bookings, 1)
	masked := body.Bookings[0]
	require.Equal(t, "2025-03-10", masked.Date)
	require.Equal(t, domain.BookingBooked, masked.Status)
	require.Empty(t, masked.ID)
	require.Empty(t, masked.CustomerName)
	require.Empty(t, masked.CustomerID)
	require.Empty(t, masked.Sales.StaffNo)
}

func TestConsumptionApprovalFinishesBooking(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales001")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodPost, "/api/v1/consumptions", sales, core.ConsumptionInput{BookingID: "b1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req domain.ConsumptionRequest
	decode(t, rec, &req)
	require.Equal(t, domain.RequestPending, req.Status)

	rec = api.do(t, http.MethodGet, "/api/v1/consumptions/pending", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue struct {
		Consumptions []domain.ConsumptionRequest `json:"consumptions"`
	}
	decode(t, rec, &queue)
	require.Len(t, queue.Consumptions, 1)

	rec = api.do(t, http.MethodPost, "/api/v1/consumptions/"+req.ID+"/transitions", leader, transitionRequest{Event: "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/bookings/b1", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var booking domain.Booking
	decode(t, rec, &booking)
	require.Equal(t, domain.BookingFinished, booking.Status)
	require.NotNil(t, booking.ServiceSales)
	require.Equal(t, "S0000001", booking.ServiceSales.StaffNo)
}

func TestRechargeFlow(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales002")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodPost, "/api/v1/recharges", sales, core.RechargeInput{CustomerID: "c0000003", Amount: 1000, GiftProduct: "果盘"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req domain.RechargeRequest
	decode(t, rec, &req)

	rec = api.do(t, http.MethodPost, "/api/v1/recharges/"+req.ID+"/transitions", leader, transitionRequest{Event: "reject"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, ErrCodeValidationFailed, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/recharges/"+req.ID+"/transitions", leader, transitionRequest{Event: "reject", Reason: "凭证不清晰"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &req)
	require.Equal(t, domain.RequestRejected, req.Status)
	require.Equal(t, "凭证不清晰", req.RejectReason)

	rec = api.do(t, http.MethodGet, "/api/v1/recharges", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Recharges []domain.RechargeRequest `json:"recharges"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Recharges, 1)

	rec = api.do(t, http.MethodGet, "/api/v1/recharges/pending", sales, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOccupancyDefaultsToAWeek(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales001")

	rec := api.do(t, http.MethodGet, "/api/v1/stores/store1/occupancy", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		From string         `json:"from"`
		To   string         `json:"to"`
		Rows []occupancyRow `json:"rows"`
	}
	decode(t, rec, &body)
	require.Equal(t, "2025-03-10", body.From)
	require.Equal(t, "2025-03-16", body.To)
	require.Len(t, body.Rows, 6)
	first := body.Rows[0]
	require.Equal(t, "r1", first.Room.ID)
	require.Len(t, first.Cells, 7)
	require.Equal(t, domain.BookingBooked, first.Cells[0].Status)
	require.Equal(t, "已预订", first.Cells[0].Label)
	require.Equal(t, "b1", first.Cells[0].BookingID)

	rec = api.do(t, http.MethodGet, "/api/v1/stores/store1/occupancy?from=2025-03-09", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Rows[0].Cells, 1)

	rec = api.do(t, http.MethodGet, "/api/v1/stores/nope/occupancy", sales, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDirectoryRoutes(t *testing.T) {
	api := newTestAPI(t)
	sales := api.login(t, "sales001")
	leader := api.login(t, "leader001")

	rec := api.do(t, http.MethodGet, "/api/v1/stores", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "上海店")

	rec = api.do(t, http.MethodGet, "/api/v1/stores/store2/rooms", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms struct {
		Rooms []domain.Room `json:"rooms"`
	}
	decode(t, rec, &rooms)
	require.Len(t, rooms.Rooms, 5)

	rec = api.do(t, http.MethodGet, "/api/v1/customers", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var customers struct {
		Customers []domain.Customer `json:"customers"`
	}
	decode(t, rec, &customers)
	require.Len(t, customers.Customers, 3)

	rec = api.do(t, http.MethodGet, "/api/v1/customers/c0000003", sales, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/customers", sales, core.CustomerInput{Name: "孙先生", Phone: "13900139000", CardTier: domain.CardSilver})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer domain.Customer
	decode(t, rec, &customer)
	require.Equal(t, "S0000001", customer.OwnerStaffID)
	require.Equal(t, "2025-03-10", customer.OpenDate)

	phone := "13900139999"
	rec = api.do(t, http.MethodPatch, "/api/v1/customers/"+customer.ID, sales, customerPatchRequest{
		CustomerPatch:   domain.CustomerPatch{Phone: &phone},
		ExpectedVersion: customer.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &customer)
	require.Equal(t, phone, customer.Phone)

	rec = api.do(t, http.MethodGet, "/api/v1/team", sales, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/team", leader, teamMemberRequest{StaffNo: "S0000003", StaffName: "王五"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var member domain.TeamMember
	decode(t, rec, &member)

	rec = api.do(t, http.MethodGet, "/api/v1/team", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var team struct {
		Members []domain.TeamMember `json:"members"`
	}
	decode(t, rec, &team)
	require.Len(t, team.Members, 3)

	rec = api.do(t, http.MethodGet, "/api/v1/team/S0000001/overview", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var overview core.StaffOverview
	decode(t, rec, &overview)
	require.Len(t, overview.Customers, 4)
	require.Len(t, overview.Bookings, 3)

	rec = api.do(t, http.MethodDelete, "/api/v1/team/"+member.ID, leader, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/labels", sales, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "银卡"))
}
