package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceClient is a typed client for LedgerService.
type LedgerServiceClient struct {
	validateExpense   *connect.Client[ExpenseRequest, ValidateExpenseResponse]
	recordExpense     *connect.Client[ExpenseRequest, RecordExpenseResponse]
	deleteExpense     *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	getBalances       *connect.Client[GroupRequest, GetBalancesResponse]
	getSettlementPlan *connect.Client[GroupRequest, GetSettlementPlanResponse]
	listExpenses      *connect.Client[GroupRequest, ListExpensesResponse]
	recordSettlement  *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	deleteSettlement  *connect.Client[DeleteSettlementRequest, DeleteSettlementResponse]
	listSettlements   *connect.Client[GroupRequest, ListSettlementsResponse]
	calculateSplit    *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
}

// NewLedgerServiceClient constructs a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{name: "json"})}, opts...)
	return &LedgerServiceClient{
		validateExpense:   connect.NewClient[ExpenseRequest, ValidateExpenseResponse](httpClient, baseURL+ValidateExpenseProcedure, opts...),
		recordExpense:     connect.NewClient[ExpenseRequest, RecordExpenseResponse](httpClient, baseURL+RecordExpenseProcedure, opts...),
		deleteExpense:     connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		getBalances:       connect.NewClient[GroupRequest, GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
		getSettlementPlan: connect.NewClient[GroupRequest, GetSettlementPlanResponse](httpClient, baseURL+GetSettlementPlanProcedure, opts...),
		listExpenses:      connect.NewClient[GroupRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		recordSettlement:  connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+RecordSettlementProcedure, opts...),
		deleteSettlement:  connect.NewClient[DeleteSettlementRequest, DeleteSettlementResponse](httpClient, baseURL+DeleteSettlementProcedure, opts...),
		listSettlements:   connect.NewClient[GroupRequest, ListSettlementsResponse](httpClient, baseURL+ListSettlementsProcedure, opts...),
		calculateSplit:    connect.NewClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL+CalculateSplitProcedure, opts...),
	}
}

func (c *LedgerServiceClient) ValidateExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ValidateExpenseResponse], error) {
	return c.validateExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetSettlementPlan(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	return c.getSettlementPlan.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[DeleteSettlementRequest]) (*connect.Response[DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListSettlements(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}
