package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
)

// ExportReport writes the financial report for the requested range as a CSV
// download.
func (s *Server) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := reportRange(r)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	stats := s.report.FinancialStats(ctx)
	rep := s.report.DetailedReport(ctx, start, end)

	filename := fmt.Sprintf("financial_report_%s_%s.csv",
		rep.Start.Format("20060102"), rep.End.Format("20060102"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	records := [][]string{
		{"FINANCIAL REPORT"},
		{"Period", rep.Start.Format("2006-01-02"), rep.End.Format("2006-01-02")},
		{},
		{"OVERALL STATISTICS"},
		{"Metric", "Value"},
		{"Total balance", stats.TotalBalance.StringFixed(2)},
		{"Total deposits", stats.TotalDeposits.StringFixed(2)},
		{"Total withdrawals", stats.TotalWithdrawals.StringFixed(2)},
		{"Active accounts", fmt.Sprint(stats.ActiveAccounts)},
		{"Monthly service revenue", stats.MonthlyServiceRevenue.StringFixed(2)},
		{},
		{"PERIOD REPORT"},
		{"Metric", "Value"},
		{"Transactions", fmt.Sprint(rep.TotalTransactions)},
		{"Deposits", rep.Deposits.StringFixed(2)},
		{"Withdrawals", rep.Withdrawals.StringFixed(2)},
		{"Net flow", rep.NetFlow.StringFixed(2)},
		{"New accounts", fmt.Sprint(rep.NewAccounts)},
		{"Service revenue", rep.ServiceRevenue.StringFixed(2)},
	}

	if err := cw.WriteAll(records); err != nil {
		s.log.ErrorContext(ctx, "failed to write csv export", "ERROR", err)
	}
}
