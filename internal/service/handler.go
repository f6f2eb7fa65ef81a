package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths of LedgerService.
const (
	ValidateExpenseProcedure   = "/" + LedgerServiceName + "/ValidateExpense"
	RecordExpenseProcedure     = "/" + LedgerServiceName + "/RecordExpense"
	DeleteExpenseProcedure     = "/" + LedgerServiceName + "/DeleteExpense"
	GetBalancesProcedure       = "/" + LedgerServiceName + "/GetBalances"
	GetSettlementPlanProcedure = "/" + LedgerServiceName + "/GetSettlementPlan"
	ListExpensesProcedure      = "/" + LedgerServiceName + "/ListExpenses"
	RecordSettlementProcedure  = "/" + LedgerServiceName + "/RecordSettlement"
	DeleteSettlementProcedure  = "/" + LedgerServiceName + "/DeleteSettlement"
	ListSettlementsProcedure   = "/" + LedgerServiceName + "/ListSettlements"
	CalculateSplitProcedure    = "/" + LedgerServiceName + "/CalculateSplit"
)

// PublicProcedures do not touch group state and need no authentication.
var PublicProcedures = []string{CalculateSplitProcedure}

// NewLedgerServiceHandler builds an HTTP handler serving every LedgerService
// procedure. It returns the path prefix to mount the handler on.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	for _, o := range codecOptions() {
		opts = append(opts, o)
	}

	mux := http.NewServeMux()
	mux.Handle(ValidateExpenseProcedure, connect.NewUnaryHandler(ValidateExpenseProcedure, svc.ValidateExpense, opts...))
	mux.Handle(RecordExpenseProcedure, connect.NewUnaryHandler(RecordExpenseProcedure, svc.RecordExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(GetBalancesProcedure, connect.NewUnaryHandler(GetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(GetSettlementPlanProcedure, connect.NewUnaryHandler(GetSettlementPlanProcedure, svc.GetSettlementPlan, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(RecordSettlementProcedure, connect.NewUnaryHandler(RecordSettlementProcedure, svc.RecordSettlement, opts...))
	mux.Handle(DeleteSettlementProcedure, connect.NewUnaryHandler(DeleteSettlementProcedure, svc.DeleteSettlement, opts...))
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, svc.ListSettlements, opts...))
	mux.Handle(CalculateSplitProcedure, connect.NewUnaryHandler(CalculateSplitProcedure, svc.CalculateSplit, opts...))

	return "/" + LedgerServiceName + "/", mux
}
