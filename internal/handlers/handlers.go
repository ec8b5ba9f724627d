// Package handlers exposes the bank as a JSON HTTP API. The caller identity
// in the requests is trusted: authentication and authorization run in front
// of this service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vbrandao/bank/internal/core/account"
	"github.com/vbrandao/bank/internal/core/catalog"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/principal"
	"github.com/vbrandao/bank/internal/core/report"
	"github.com/vbrandao/bank/internal/web"
	"go.opentelemetry.io/otel/trace"
)

func APIMux(s *Server, tracer trace.Tracer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /clients", middlewareWeb(tracer, s.RegisterClient))
	mux.Handle("GET /clients/{id}", middlewareWeb(tracer, s.QueryClient))
	mux.Handle("GET /clients/{id}/accounts", middlewareWeb(tracer, s.ClientAccounts))
	mux.Handle("GET /clients/{id}/subscriptions", middlewareWeb(tracer, s.ClientSubscriptions))

	mux.Handle("POST /accounts", middlewareWeb(tracer, s.CreateAccount))
	mux.Handle("GET /accounts/{id}", middlewareWeb(tracer, s.QueryAccount))
	mux.Handle("DELETE /accounts/{id}", middlewareWeb(tracer, s.DeleteAccount))
	mux.Handle("POST /accounts/{id}/activate", middlewareWeb(tracer, s.ActivateAccount))
	mux.Handle("POST /accounts/{id}/deactivate", middlewareWeb(tracer, s.DeactivateAccount))
	mux.Handle("POST /accounts/{id}/deposit", middlewareWeb(tracer, s.Deposit))
	mux.Handle("POST /accounts/{id}/withdraw", middlewareWeb(tracer, s.Withdraw))
	mux.Handle("POST /accounts/{id}/transfer", middlewareWeb(tracer, s.Transfer))

	mux.Handle("GET /services", middlewareWeb(tracer, s.QueryServices))
	mux.Handle("POST /services", middlewareWeb(tracer, s.CreateService))
	mux.Handle("GET /services/{id}", middlewareWeb(tracer, s.QueryService))
	mux.Handle("PATCH /services/{id}", middlewareWeb(tracer, s.UpdateService))
	mux.Handle("POST /services/{id}/subscribe", middlewareWeb(tracer, s.Subscribe))
	mux.Handle("POST /services/{id}/unsubscribe", middlewareWeb(tracer, s.Unsubscribe))

	mux.Handle("POST /billing/sweep", middlewareWeb(tracer, s.RunBillingSweep))

	mux.Handle("GET /reports/stats", middlewareWeb(tracer, s.FinancialStats))
	mux.Handle("GET /reports/detailed", middlewareWeb(tracer, s.DetailedReport))
	mux.Handle("GET /reports/transactions", middlewareWeb(tracer, s.RecentTransactions))
	mux.Handle("GET /reports/daily", middlewareWeb(tracer, s.DailyStats))
	mux.Handle("GET /reports/export", middlewareWeb(tracer, s.ExportReport))

	return mux
}

type Server struct {
	log       *slog.Logger
	ledger    *ledger.Core
	account   *account.Core
	principal *principal.Core
	catalog   *catalog.Core
	report    *report.Core
}

func NewServer(log *slog.Logger, l *ledger.Core, a *account.Core, p *principal.Core, c *catalog.Core, r *report.Core) *Server {
	return &Server{
		log:       log,
		ledger:    l,
		account:   a,
		principal: p,
		catalog:   c,
		report:    r,
	}
}

// =============================================================================
// Clients

func (s *Server) RegisterClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decode[RegisterClientReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = principal.KindClient
	}

	p, err := s.principal.Register(ctx, principal.NewPrincipal{
		Kind:       kind,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toClientResp(p))
}

func (s *Server) QueryClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	p, err := s.principal.QueryByID(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toClientResp(p))
}

func (s *Server) ClientAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	accs, err := s.account.QueryByClient(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toAccountResps(accs))
}

func (s *Server) ClientSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	svcs, err := s.catalog.QuerySubscriptions(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toServiceResps(svcs))
}

// =============================================================================
// Accounts

func (s *Server) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decode[CreateAccountReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	a, err := s.account.Create(ctx, account.NewAccount{
		ClientID:       req.ClientID,
		Type:           req.Type,
		OverdraftLimit: req.OverdraftLimit,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toAccountResp(a))
}

func (s *Server) QueryAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	a, err := s.account.QueryByID(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toAccountResp(a))
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	if err := s.account.Delete(ctx, id); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	s.setAccountActive(w, r, true)
}

func (s *Server) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	s.setAccountActive(w, r, false)
}

func (s *Server) setAccountActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	if err := s.account.SetActive(ctx, id, active); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Ledger

func (s *Server) Deposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}
	req, err := decode[MovementReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	acc, err := s.ledger.Deposit(ctx, id, req.ClientID, req.Amount, req.Description)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toBalanceResp(acc))
}

func (s *Server) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}
	req, err := decode[MovementReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	acc, err := s.ledger.Withdraw(ctx, id, req.ClientID, req.Amount, req.Description)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toBalanceResp(acc))
}

func (s *Server) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}
	req, err := decode[TransferReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	t, err := s.ledger.Transfer(ctx, id, req.ClientID, req.Destination, req.Amount, req.Description)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toTransferResp(t))
}

// =============================================================================
// Services

func (s *Server) QueryServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("all") != "true"
	svcs, err := s.catalog.QueryServices(ctx, activeOnly)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toServiceResps(svcs))
}

func (s *Server) CreateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decode[CreateServiceReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	svc, err := s.catalog.CreateService(ctx, catalog.NewService{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImagePath:   req.ImagePath,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusCreated, toServiceResp(svc))
}

func (s *Server) QueryService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}

	svc, err := s.catalog.QueryServiceByID(ctx, id)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toServiceResp(svc))
}

func (s *Server) UpdateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}
	req, err := decode[UpdateServiceReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	svc, err := s.catalog.UpdateService(ctx, id, catalog.UpdateService{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
		ImagePath:   req.ImagePath,
	})
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toServiceResp(svc))
}

func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	s.subscription(w, r, s.catalog.Subscribe)
}

func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	s.subscription(w, r, s.catalog.Unsubscribe)
}

func (s *Server) subscription(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, clientID, serviceID int) error) {
	ctx := r.Context()

	id, err := getID(r)
	if err != nil {
		s.respondError(ctx, w, errInvalidID)
		return
	}
	req, err := decode[SubscriptionReq](r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	if err := fn(ctx, req.ClientID, id); err != nil {
		s.respondError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Billing

func (s *Server) RunBillingSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.catalog.RunBillingSweep(ctx)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.log.InfoContext(ctx, "billing sweep finished", "charged", summary.Charged, "failed", summary.Failed)
	s.respond(ctx, w, http.StatusOK, toBillingResp(summary))
}

// =============================================================================
// Reports

func (s *Server) FinancialStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.respond(ctx, w, http.StatusOK, toStatsResp(s.report.FinancialStats(ctx)))
}

func (s *Server) DetailedReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := reportRange(r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	s.respond(ctx, w, http.StatusOK, toReportResp(s.report.DetailedReport(ctx, start, end)))
}

func (s *Server) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ts := s.report.RecentTransactions(ctx, limit)

	s.respond(ctx, w, http.StatusOK, toTransactionResps(ts))
}

func (s *Server) DailyStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	ds := s.report.DailyStats(ctx, days)

	s.respond(ctx, w, http.StatusOK, toDayStatsResps(ds))
}

// =============================================================================
// Helpers

var errInvalidID = errors.New("invalid id")

func getID(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("id"))
}

func decode[T any](r *http.Request) (T, error) {
	var req T
	err := json.NewDecoder(r.Body).Decode(&req)
	r.Body.Close()
	if err != nil {
		return req, errBadRequest
	}
	return req, nil
}

var errBadRequest = errors.New("malformed request body")

// reportRange reads the start/end query parameters, defaulting to the last
// month ending now.
func reportRange(r *http.Request) (time.Time, time.Time, error) {
	now := web.GetTime(r.Context())
	start := now.AddDate(0, -1, 0)
	end := now

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, errBadRequest
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, errBadRequest
		}
		end = t
	}

	return start, end, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, status int, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode response", "ERROR", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bs)
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	s.log.ErrorContext(ctx, "request failed", "ERROR", err)

	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, principal.ErrNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, errInvalidID):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, account.ErrInvalidOverdraft),
		errors.Is(err, principal.ErrInvalidArgument),
		errors.Is(err, catalog.ErrInvalidService),
		errors.Is(err, errBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrAccountInactive),
		errors.Is(err, ledger.ErrNoCheckingAccount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, catalog.ErrServiceInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)

	case errors.Is(err, ledger.ErrConcurrentModification),
		errors.Is(err, principal.ErrEmailTaken),
		errors.Is(err, catalog.ErrAlreadySubscribed),
		errors.Is(err, catalog.ErrNotSubscribed),
		errors.Is(err, account.ErrAccountNotEmpty),
		errors.Is(err, account.ErrAccountHasHistory),
		errors.Is(err, catalog.ErrSweepRunning):
		http.Error(w, err.Error(), http.StatusConflict)

	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
