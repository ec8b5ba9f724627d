package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vbrandao/bank/internal/core/account"
	"github.com/vbrandao/bank/internal/core/account/store/accountdb"
	"github.com/vbrandao/bank/internal/core/catalog"
	"github.com/vbrandao/bank/internal/core/catalog/store/catalogdb"
	"github.com/vbrandao/bank/internal/core/ledger"
	"github.com/vbrandao/bank/internal/core/ledger/store/ledgerdb"
	"github.com/vbrandao/bank/internal/core/principal"
	"github.com/vbrandao/bank/internal/core/principal/store/principaldb"
	"github.com/vbrandao/bank/internal/core/report"
	"github.com/vbrandao/bank/internal/core/report/store/reportdb"
	"github.com/vbrandao/bank/internal/data/dbtest"
	"go.opentelemetry.io/otel"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log, db, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	ledgerCore := ledger.NewCore(ledgerdb.NewStore(log, db))
	accountCore := account.NewCore(accountdb.NewStore(log, db))
	principalCore := principal.NewCore(principaldb.NewStore(log, db))
	catalogCore := catalog.NewCore(catalogdb.NewStore(log, db), ledgerCore, nil)
	reportCore := report.NewCore(log, reportdb.NewStore(log, db), nil)

	server := NewServer(log, ledgerCore, accountCore, principalCore, catalogCore, reportCore)
	httpServer := httptest.NewServer(APIMux(server, otel.GetTracerProvider().Tracer("")))
	t.Cleanup(httpServer.Close)

	return httpServer
}

func TestDeposit(t *testing.T) {
	httpServer := newTestServer(t)

	path := httpServer.URL + "/accounts/1/deposit"
	data := `{"client_id":2,"amount":"25.50","description":"paycheck"}`

	resp, err := http.Post(path, "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	var bresp BalanceResp
	if err := json.NewDecoder(resp.Body).Decode(&bresp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if want := decimal.RequireFromString("125.50"); !bresp.Balance.Equal(want) {
		t.Fatalf("got balance %s want %s", bresp.Balance, want)
	}
	if bresp.AccountNumber != "FR7610042004200420042001" {
		t.Fatalf("got account number %q", bresp.AccountNumber)
	}
}

func TestTransfer(t *testing.T) {
	httpServer := newTestServer(t)

	path := httpServer.URL + "/accounts/1/transfer"
	data := `{"client_id":2,"destination":"FR7610042004200420042003","amount":"40.00","description":"rent"}`

	resp, err := http.Post(path, "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	var tresp TransferResp
	if err := json.NewDecoder(resp.Body).Decode(&tresp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if want := decimal.RequireFromString("60.00"); !tresp.Source.Balance.Equal(want) {
		t.Fatalf("got source balance %s want %s", tresp.Source.Balance, want)
	}
	if tresp.Destination != "FR7610042004200420042003" {
		t.Fatalf("got destination %q", tresp.Destination)
	}
}

func TestLedgerStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		data       string
		wantedCode int
	}{
		{"deposit ok", "/accounts/1/deposit", `{"client_id":2,"amount":"10.00"}`, 200},
		{"unknown account", "/accounts/99/deposit", `{"client_id":2,"amount":"10.00"}`, 404},
		{"bad id", "/accounts/abc/deposit", `{"client_id":2,"amount":"10.00"}`, 404},
		{"invalid amount", "/accounts/1/deposit", `{"client_id":2,"amount":"10.555"}`, 400},
		{"negative amount", "/accounts/1/withdraw", `{"client_id":2,"amount":"-5.00"}`, 400},
		{"malformed body", "/accounts/1/deposit", `{`, 400},
		{"insufficient funds", "/accounts/1/withdraw", `{"client_id":2,"amount":"9999.00"}`, 422},
		{"inactive account", "/accounts/4/deposit", `{"client_id":3,"amount":"10.00"}`, 422},
		{"transfer to self", "/accounts/1/transfer", `{"client_id":2,"destination":"FR7610042004200420042001","amount":"10.00"}`, 422},
	}

	httpServer := newTestServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(httpServer.URL+tt.path, "application/json", strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantedCode {
				t.Fatalf("got wrong status code: %v, want: %v", resp.StatusCode, tt.wantedCode)
			}
		})
	}
}

func TestAccountLifecycle(t *testing.T) {
	httpServer := newTestServer(t)

	data := `{"client_id":2,"type":"savings","overdraft_limit":"0.00"}`
	resp, err := http.Post(httpServer.URL+"/accounts", "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	var aresp AccountResp
	if err := json.NewDecoder(resp.Body).Decode(&aresp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !strings.HasPrefix(aresp.AccountNumber, "FR76") {
		t.Fatalf("got account number %q", aresp.AccountNumber)
	}

	req, err := http.NewRequest(http.MethodDelete, httpServer.URL+fmt.Sprintf("/accounts/%d", aresp.ID), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	dresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer dresp.Body.Close()

	if dresp.StatusCode != http.StatusNoContent {
		t.Fatalf("got wrong status code: %v", dresp.StatusCode)
	}
}

func TestSubscriptionConflict(t *testing.T) {
	httpServer := newTestServer(t)

	path := httpServer.URL + "/services/2/subscribe"
	data := `{"client_id":3}`

	resp, err := http.Post(path, "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	resp, err = http.Post(path, "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}
}

func TestReports(t *testing.T) {
	httpServer := newTestServer(t)

	resp, err := http.Get(httpServer.URL + "/reports/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	var sresp StatsResp
	if err := json.NewDecoder(resp.Body).Decode(&sresp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !sresp.Available {
		t.Fatal("stats should be available")
	}
	if want := decimal.RequireFromString("850.00"); !sresp.TotalBalance.Equal(want) {
		t.Fatalf("got total balance %s want %s", sresp.TotalBalance, want)
	}

	rresp, err := http.Get(httpServer.URL + "/reports/detailed?start=1990-01-01&end=1990-01-31")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rresp.Body.Close()

	var rep ReportResp
	if err := json.NewDecoder(rresp.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !rep.Available || rep.TotalTransactions != 0 {
		t.Fatalf("got report %+v want an available empty report", rep)
	}
}

func TestExport(t *testing.T) {
	httpServer := newTestServer(t)

	resp, err := http.Get(httpServer.URL + "/reports/export?start=2026-01-01&end=2026-01-31")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/csv" {
		t.Fatalf("got content type %q want text/csv", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "financial_report_20260101_20260131.csv") {
		t.Fatalf("got content disposition %q", got)
	}
}

func TestRegisterClient(t *testing.T) {
	httpServer := newTestServer(t)

	data := `{"email":"paul@bank.test","password":"s3cret!","first_name":"Paul","last_name":"Durand"}`
	resp, err := http.Post(httpServer.URL+"/clients", "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}

	var cresp ClientResp
	if err := json.NewDecoder(resp.Body).Decode(&cresp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if cresp.Kind != "client" {
		t.Fatalf("got kind %q want client", cresp.Kind)
	}

	// Same email again conflicts.
	resp, err = http.Post(httpServer.URL+"/clients", "application/json", strings.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("got wrong status code: %v", resp.StatusCode)
	}
}
