// Package service exposes the ledger over Connect RPC.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService over the given ledger.
func NewLedgerService(l *ledger.Ledger, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{ledger: l, logger: logger}
}

// authorize checks that the authenticated caller, if any, is a current member
// of the group. Unknown groups are reported as not found.
func (s *LedgerService) authorize(ctx context.Context, groupID string) error {
	if groupID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("group_id is required"))
	}
	memberID := middleware.GetMemberID(ctx)
	if memberID == "" {
		return nil
	}
	group, err := s.ledger.Group(ctx, groupID)
	if err != nil {
		return toConnectError(err)
	}
	if !group.HasMember(memberID) {
		return connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}
	return nil
}

// ValidateExpense checks a candidate expense without recording it.
func (s *LedgerService) ValidateExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ValidateExpenseResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	in, err := expenseInput(req.Msg)
	if err == nil {
		err = s.ledger.ValidateExpense(ctx, req.Msg.GroupID, in)
	}
	if err == nil {
		return connect.NewResponse(&ValidateExpenseResponse{Valid: true}), nil
	}

	// Rejections built at the transport boundary wrap a ValidationError too.
	var validationErr *calculator.ValidationError
	if errors.As(err, &validationErr) {
		return connect.NewResponse(&ValidateExpenseResponse{
			Reason: string(validationErr.Reason),
			Detail: validationErr.Detail,
		}), nil
	}
	return nil, toConnectError(err)
}

// RecordExpense validates and records an expense.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	in, err := expenseInput(req.Msg)
	if err != nil {
		return nil, err
	}

	expense, snapshot, err := s.ledger.RecordExpense(ctx, req.Msg.GroupID, in)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecordExpenseResponse{
		Expense:      toExpense(expense),
		BalanceSheet: toBalanceSheet(snapshot),
	}), nil
}

// DeleteExpense removes an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	snapshot, err := s.ledger.DeleteExpense(ctx, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteExpenseResponse{BalanceSheet: toBalanceSheet(snapshot)}), nil
}

// GetBalances returns the current balances of a group.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	snapshot, err := s.ledger.Balances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetBalancesResponse{BalanceSheet: toBalanceSheet(snapshot)}), nil
}

// GetSettlementPlan returns the transfers that settle the group.
func (s *LedgerService) GetSettlementPlan(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	transfers, err := s.ledger.SettlementPlan(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return connect.NewResponse(&GetSettlementPlanResponse{GroupID: req.Msg.GroupID, Transfers: out}), nil
}

// ListExpenses returns the live expenses of a group.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListExpensesResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

// RecordSettlement records a payment between two members.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	settlement, snapshot, err := s.ledger.RecordSettlement(ctx, req.Msg.GroupID, calculator.SettlementInput{
		GroupID:      req.Msg.GroupID,
		FromMemberID: req.Msg.FromMemberID,
		ToMemberID:   req.Msg.ToMemberID,
		Amount:       amount,
		Note:         req.Msg.Note,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecordSettlementResponse{
		Settlement:   toSettlement(settlement),
		BalanceSheet: toBalanceSheet(snapshot),
	}), nil
}

// DeleteSettlement removes a settlement.
func (s *LedgerService) DeleteSettlement(ctx context.Context, req *connect.Request[DeleteSettlementRequest]) (*connect.Response[DeleteSettlementResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	snapshot, err := s.ledger.DeleteSettlement(ctx, req.Msg.GroupID, req.Msg.SettlementID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteSettlementResponse{BalanceSheet: toBalanceSheet(snapshot)}), nil
}

// ListSettlements returns the settlements of a group.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListSettlementsResponse], error) {
	if err := s.authorize(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	settlements, err := s.ledger.ListSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}

// CalculateSplit computes split amounts without touching any group.
func (s *LedgerService) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	total, err := parseAmount("total_amount", req.Msg.TotalAmount)
	if err != nil {
		return nil, err
	}

	var splits []calculator.Split
	switch req.Msg.Method {
	case MethodEven, "":
		splits, err = calculator.EvenSplit(total, req.Msg.Participants)
	case MethodShares:
		splits, err = calculator.SharesSplit(total, req.Msg.Participants, req.Msg.Shares)
	case MethodItemized:
		items := make([]calculator.Item, len(req.Msg.Items))
		for i, item := range req.Msg.Items {
			amount, err := parseAmount(fmt.Sprintf("items[%d].amount", i), item.Amount)
			if err != nil {
				return nil, err
			}
			items[i] = calculator.Item{Description: item.Description, Amount: amount, AssignedTo: item.AssignedTo}
		}
		splits, err = calculator.ItemizedSplit(total, items, req.Msg.Participants)
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown split method %q", req.Msg.Method))
	}
	if err != nil {
		s.logger.DebugContext(ctx, "CalculateSplit rejected", "method", req.Msg.Method, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	return connect.NewResponse(&CalculateSplitResponse{Splits: toSplits(splits)}), nil
}
